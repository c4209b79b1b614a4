// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("worlds/run-42"),
//	    s3.WithRegion("eu-west-1"),
//	)
//
//	w := worldmodel.New(worldmodel.WithStore(store))
//
// Large payloads (point clouds, images) are uploaded through the multipart
// uploader of feature/s3/manager; small annotation frames use a single
// PutObject.
//
// CommitStore layers a DynamoDB table over a Store so that the CURRENT
// snapshot pointer is updated with a conditional write. Concurrent writers
// then lose cleanly with ErrConcurrentModification instead of silently
// overwriting each other.
package s3
