package scanner

import "time"

// Stats reports how far a scan has come.
type Stats struct {
	Files   int64
	Dirs    int64
	Bytes   int64
	Errors  int64
	Elapsed time.Duration
}

// ItemsPerSecond returns the scan rate.
func (s Stats) ItemsPerSecond() float64 {
	if s.Elapsed.Seconds() == 0 {
		return 0
	}
	return float64(s.Files+s.Dirs) / s.Elapsed.Seconds()
}

func (s *Stats) count(e Entry) {
	if e.IsDir {
		s.Dirs++
		return
	}
	s.Files++
	if e.Size > 0 {
		s.Bytes += e.Size
	}
}
