// Package shelter is a small file-backed record store with encryption at rest.
//
// Each table is one JSON file under a data directory. Records are schema-less
// ordered mappings that receive an integer id on creation. Queries (equality
// filter, substring search, sort, paging) scan the decoded table in memory.
//
// With encryption enabled, the table content is serialized, encrypted with
// AES-256-CBC under keys derived from two secrets, authenticated with
// HMAC-SHA256 and stored as base64. Which mode a file was written in is not
// recorded; the store reads every file in its current mode.
//
// Features:
//
//   - **Ordered records**: field order survives every read and write.
//   - **Safe rewrites**: per-table lock file plus atomic temp-file rename.
//   - **Explicit failures**: corrupt tables return core.ErrCorruptTable instead
//     of reading as empty (see WithLenientReads for the old behaviour).
//   - **Typed access**: OpenTyped maps Go structs onto a table.
//   - **Reactivity**: Store.Watch reports table changes.
//
// Usage:
//
//	store, err := shelter.Open("./data", shelter.WithSecrets(key, iv))
//	if err != nil {
//		return err
//	}
//	rec, err := store.Create(ctx, "users", shelter.NewRecord("name", "ada"))
package shelter
