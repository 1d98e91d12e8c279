// Package processing takes care of the logistics around reading from a Source and writing to a Target.
// Not the processing operation(s) itself.
package processing

import (
	"errors"
	"log"
	"sync"
)

// Stats counts what went through a Process run.
type Stats struct {
	Read    uint64
	Written uint64
	Skipped uint64
	Failed  uint64
}

func (s Stats) log(name string) {
	log.Printf("    %s read: %d", name, s.Read)
	log.Printf("    %s written: %d", name, s.Written)
	if s.Skipped > 0 {
		log.Printf("    %s skipped: %d", name, s.Skipped)
	}
	if s.Failed > 0 {
		log.Printf("    %s failed: %d", name, s.Failed)
	}
}

// processItems applies f to every incoming item. The input is always drained so the source never blocks,
// but after the first error nothing is sent to the output anymore.
func processItems[T, U any](itemsIn <-chan T, itemsOut chan<- U, f ProcessFunc[T, U]) (stats Stats, err error) {
	for item := range itemsIn {
		stats.Read++
		if err != nil {
			stats.Skipped++
			continue
		}
		processed, fErr := f(item)
		if fErr != nil {
			stats.Failed++
			err = fErr
			continue
		}
		if len(processed) == 0 {
			stats.Skipped++
		}
		for _, p := range processed {
			itemsOut <- p
			stats.Written++
		}
	}
	close(itemsOut)
	return stats, err
}

// Process reads all items from source, applies f and writes the results to target.
// Reading, processing and writing each run concurrently. All errors are joined.
func Process[T, U any](name string, source Source[T], target Target[U], f ProcessFunc[T, U]) (Stats, error) {
	itemsIn := make(chan T)
	itemsOut := make(chan U)

	var readErr, writeErr error
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		writeErr = target.Write(itemsOut)
		// keep draining when the target gave up early
		for range itemsOut { //nolint:revive
		}
	}()
	go func() {
		defer wg.Done()
		readErr = source.Read(itemsIn)
		close(itemsIn)
	}()

	stats, processErr := processItems(itemsIn, itemsOut, f)
	wg.Wait()

	stats.log(name)
	return stats, errors.Join(readErr, processErr, writeErr)
}
