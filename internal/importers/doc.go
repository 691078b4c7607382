// Package importers runs the clippings import.
//
// # Architecture
//
// One run follows a fixed, sequential flow:
//
//	My Clippings.txt → kindle.Parse → []entities.Book
//	    → for each book: exporters.RenderBook → Destination.Write → State.Record
//	    → Store.Save
//
// The sync state is loaded once, snapshotted before each book is rendered and
// only updated after that book's document was written. A book whose write
// fails keeps its highlights "new" for the next run. The state is saved once
// at the end, or after every written book with Options.PersistEachBook.
//
// # Example Usage
//
//	store := syncstate.NewJSONFileStore(statePath)
//	dest := exporters.NewFolderDestination(outputDir)
//	pipeline := importers.NewPipeline(store, dest, logger, importers.Options{})
//
//	result, err := pipeline.RunFile(clippingsPath)
package importers
