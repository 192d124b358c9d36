// Package worker runs independent document loads on a bounded pool.
//
// The typical use is loading several MRCONSO extracts against one MeSH
// document that has finished loading and is no longer mutated:
//
//	pool := worker.NewPool(func(ctx context.Context, job worker.Job) (*xref.Document, error) {
//	    return xref.Load(ctx, opener, job.Input, meshDoc, opts...)
//	}, 4)
//
//	batch := pool.Run(ctx, worker.Jobs(paths...))
//	for _, r := range batch.Results {
//	    if r.Err != nil {
//	        // Handle error
//	    }
//	    // Use r.Value
//	}
package worker
