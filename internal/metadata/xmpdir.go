package metadata

import (
	"strconv"
	"strings"

	"github.com/On-Jun9/ShutterMeta/internal/xmp"
)

// readXMP adds an XMP directory for one packet. A packet that fails to parse
// still yields the directory, with the parse error kept for the walker.
func (b *builder) readXMP(packet []byte) {
	d := NewDirectory(KindXMP)
	m, err := xmp.Parse(packet)
	count := 0
	if err != nil {
		b.logger.Warn(b.path, "invalid XMP packet", err)
	} else {
		ierr := m.Iterate(func(p xmp.PropertyInfo) error {
			if strings.TrimSpace(p.Path) != "" && strings.TrimSpace(p.Value) != "" {
				count++
			}
			return nil
		})
		if ierr != nil {
			b.logger.Warn(b.path, "incomplete XMP value count", ierr)
		}
	}
	n := strconv.Itoa(count)
	d.Set("XMP Value Count", n, n)
	d.setProperties(m, err)
	b.add(d)
}
