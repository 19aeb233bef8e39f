//go:build !darwin && !windows

package scanner

// defaultSources is empty on unsupported platforms; Scan then yields an
// empty index rather than failing.
func defaultSources() []Source {
	return nil
}
