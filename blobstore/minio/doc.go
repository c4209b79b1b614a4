// Package minio provides a BlobStore implementation using the MinIO client.
//
// It targets MinIO and other S3-compatible systems (Ceph, Garage, SeaweedFS)
// without pulling in the AWS SDK, which suits robots that offload keyframe
// payloads to an on-premise object store.
//
// # Basic Usage
//
//	store, err := minioblob.New(ctx, "localhost:9000", "my-bucket",
//	    minioblob.WithCredentials("minioadmin", "minioadmin"),
//	    minioblob.WithPrefix("worlds/run-42"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w := worldmodel.New(worldmodel.WithStore(store))
package minio
