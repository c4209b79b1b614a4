// Package worldmodel provides a concurrently accessed world model for
// mapping and localization: a graph of entities (poses, calibrations,
// keyframes) connected by factors, with an age-based sweep that moves
// untouched payloads to external storage.
//
// # Quick Start
//
//	ctx := context.Background()
//	w := worldmodel.New(
//		worldmodel.WithStore(blobstore.NewLocalStore("./world")),
//		worldmodel.WithAgeToUnload(15*time.Second),
//	)
//	defer w.Close()
//
//	kf := w.EmplaceEntity(entity.NewKeyFrame(time.Now(), obs...))
//	pose := w.EmplaceEntity(entity.NewPose(time.Now()))
//	f, _ := factor.RelativePose(kf, pose)
//	_, _ = w.EmplaceFactor(f)
//
//	go w.Run(ctx) // eviction sweep
//
// # Concurrency
//
// Entities and factors are protected by two reader/writer locks that are
// always taken entities first. The closure helpers hold the right
// combination for their duration:
//
//	ViewEntities   entities read
//	UpdateEntities entities write
//	ViewFactors    factors read
//	ViewGraph      entities read + factors read
//	UpdateGraph    entities read + factors write
//
// Pointers handed to a closure must not escape it. The convenience methods
// on World (Entity, Factor, Annotation) return detached copies.
//
// # Eviction
//
// Every access through EntityByID touches the entity's watch entry. SpinOnce
// reports each entity whose last access is older than the configured age
// exactly once, persists its annotations and keyframe observations and
// releases them from memory. An entity whose unload fails stays resident and
// is retried by the next sweep. Unloaded payloads are restored on demand by
// Annotation or explicitly by Load.
//
// # Storage
//
// Payloads go to a blobstore.BlobStore: in memory, a local directory,
// SQLite, S3 (optionally with a DynamoDB commit table) or MinIO. The whole
// graph can be persisted with SaveSnapshot and restored with OpenSnapshot.
// Config loads all of this from YAML.
package worldmodel
