// Package artifact publishes vector index generations to a directory.
//
// Layout:
//
//	<dir>/CURRENT                 name of the active generation
//	<dir>/gen-<uuid>/index.bin    vectors with model name and dimensions
//	<dir>/gen-<uuid>/mapping.csv  one platform_id per vector position
//
// A generation is fully written and synced before CURRENT is replaced by
// rename, so a reader opening CURRENT never sees a partial generation.
// The two newest generations are kept on disk.
package artifact
