// Package dirscan implements C7: wordlist-driven directory existence
// probing, seeded from every directory-like prefix discovered during the
// crawl. Grounded on the teacher's http.Prober worker-pool shape, reused
// here for HEAD-with-GET-fallback probing instead of scheme fallback.
package dirscan

// exists reports whether status is one of the response classes counted as
// "the path exists" per spec §4.7: any 2xx/3xx, or 401/403.
func exists(status int) bool {
	if status == 401 || status == 403 {
		return true
	}
	return status >= 200 && status < 400
}
