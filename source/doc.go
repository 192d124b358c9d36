// Package source opens input and output locations for the loaders.
//
// A location is either a local path or an s3://bucket/key URI served by any
// S3-compatible store through the MinIO client. Inputs compressed with gzip,
// zstd or lz4 (frame format) are detected from their magic bytes and
// decompressed transparently.
//
//	client, _ := source.NewS3Client(source.S3Config{Endpoint: "localhost:9000"})
//	opener := source.NewOpener(source.WithS3Client(client))
//
//	lines, err := opener.Lines(ctx, "s3://umls/2024AA/MRCONSO.RRF.zst")
//	if err != nil {
//	    return err
//	}
//	defer lines.Close()
//	for {
//	    line, err := lines.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
package source
