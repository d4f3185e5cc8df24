// SPDX-License-Identifier: MIT

package gpu

import (
	"time"

	"golang.org/x/sync/errgroup"
)

// region is one byte range of a staging buffer to map for reading.
type region struct {
	name         string
	buf          Buffer
	offset, size uint64
}

// mapRegions requests a mapping of every region and blocks until all of
// their completion signals have arrived, polling dev in between. Every
// signal is awaited even when an earlier one failed; the first error wins.
func mapRegions(dev Device, interval time.Duration, regions ...region) error {
	var g errgroup.Group
	for _, r := range regions {
		signal := make(chan error, 1)
		if err := dev.MapAsync(r.buf, r.offset, r.size, func(err error) { signal <- err }); err != nil {
			close(signal)
			g.Go(func() error { return failureErrorf("map "+r.name, err) })
			continue
		}
		g.Go(func() error {
			if err := <-signal; err != nil {
				return failureErrorf("map "+r.name, err)
			}
			return nil
		})
	}

	joined := make(chan error, 1)
	go func() { joined <- g.Wait() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		dev.Poll(true)
		select {
		case err := <-joined:
			return err
		case <-ticker.C:
		}
	}
}
