package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/phonestock_backend/config"
)

// imei-audit scans store_imei_links for codes assigned to more than one store,
// which should never happen outside an in-flight transaction. Report-only; it
// never mutates anything.
//
// Example:
//
//	go run ./cmd/imei-audit/ -limit=100
func main() {
	limit := flag.Int("limit", 0, "Max offending codes to print (0 = no limit)")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	type row struct {
		ImeiCode   string
		StoreCount int
		StoreIds   string
	}
	var rows []row
	q := `
SELECT
    LOWER(imei_code) AS imei_code,
    COUNT(*) AS store_count,
    GROUP_CONCAT(store_id ORDER BY store_id) AS store_ids
FROM store_imei_links
GROUP BY LOWER(imei_code)
HAVING COUNT(*) > 1
ORDER BY store_count DESC, imei_code`
	if *limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", *limit)
	}
	if err := db.Raw(q).Scan(&rows).Error; err != nil {
		fmt.Fprintln(os.Stderr, "audit query failed:", err)
		os.Exit(1)
	}

	if len(rows) == 0 {
		fmt.Println("OK: every imei is assigned to at most one store")
		return
	}

	fmt.Printf("FOUND %d imei(s) assigned to multiple stores:\n", len(rows))
	for _, r := range rows {
		fmt.Printf("  imei=%s stores=[%s]\n", r.ImeiCode, strings.ReplaceAll(r.StoreIds, ",", ", "))
	}
	os.Exit(2)
}
