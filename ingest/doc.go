// Package ingest fills a vector store from a directory of documents.
//
// Markdown is rendered and reduced to text, HTML is sanitized before its
// text is extracted and plain text is read as is. Documents are cut into
// overlapping chunks and added to any langchaingo vectorstores.VectorStore:
//
//	splitter, err := ingest.NewSplitter(1000, 200)
//	if err != nil {
//		return err
//	}
//	stats, err := ingest.NewIngester(store, splitter).Run(ctx, "data")
package ingest
