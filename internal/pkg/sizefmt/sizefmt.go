package sizefmt

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB"}

// Label renders a byte count the way it is shown to download clients,
// e.g. 3145728 -> "3.00 MB". Anything past TB is reported in PB.
func Label(size int64) string {
	v := float64(size)
	for _, unit := range units {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f PB", v)
}
