package core

// PageNumbers lists the page links 1..count for pagination controls.
func PageNumbers(count int) []int {
	pages := make([]int, 0, max(count, 0))
	for p := 1; p <= count; p++ {
		pages = append(pages, p)
	}
	return pages
}
