// Package dirsearch finds a named directory among the ancestors of a start
// directory and memoizes the answer.
//
// Only the entry point of a search is cached. A search from /a/b/c for
// "node_modules" stores one entry under Key{"/a/b/c", "node_modules"}; a later
// search from /a/b walks the filesystem again. Searches that find nothing are
// cached as negative entries, so a miss is paid for once per start directory
// until the entry is evicted or ages out.
//
// The start directory itself is never checked, only its ancestors:
//
//	f := dirsearch.New(cache.NewLRU[dirsearch.Key, string]("parents", cache.DefaultPolicy()))
//	dir, ok := f.Find(ctx, "/proj/src", "node_modules") // checks /proj/node_modules, then /node_modules
package dirsearch
