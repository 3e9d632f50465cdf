// turret-watch - follows a running turret dashboard from the terminal
// Prints aim state changes and shots from the /ws/status stream, the pose
// readout from /ws/scene with -scene, or sends key presses with -send
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-turret/pkg/render"
	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/web"
)

func main() {
	url := flag.String("url", "http://localhost:8181", "Turret dashboard URL")
	every := flag.Int("every", 30, "Also print the pose every N ticks (0 = only on changes)")
	send := flag.String("send", "", "Comma-separated keys to send and exit (e.g. left,left,f)")
	scene := flag.Bool("scene", false, "Follow the rendered scene instead of the status stream")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *send != "" {
		if err := sendKeys(ctx, *url, strings.Split(*send, ",")); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	fmt.Printf("👀 Watching %s (Ctrl+C to exit)\n", *url)

	if *scene {
		if err := watchScene(ctx, *url); err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println("\n👋 Goodbye!")
		return
	}

	var last tracking.Status
	first := true
	err := web.WatchStatus(ctx, *url, func(st tracking.Status) {
		changed := first || st.State != last.State || st.Fired != last.Fired
		periodic := *every > 0 && st.Tick%uint64(*every) == 0
		if changed || periodic {
			printStatus(st, st.Fired != last.Fired && !first)
		}
		last, first = st, false
	})
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println("\n👋 Goodbye!")
}

func printStatus(st tracking.Status, fired bool) {
	line := fmt.Sprintf("[%6d] %-9s %s", st.Tick, st.State, st.Pose)
	if st.TargetCenter != nil {
		line += fmt.Sprintf("  target=(%.0f,%.0f) err=(%.0f,%.0f)", st.TargetCenter.X, st.TargetCenter.Y, st.ErrX, st.ErrY)
	}
	if st.Misses > 0 {
		line += fmt.Sprintf("  misses=%d", st.Misses)
	}
	if fired {
		line = "🔥 " + line
	}
	fmt.Println(line)
}

// sendKeys posts each key in order, then prints the resulting status.
func sendKeys(ctx context.Context, base string, keys []string) error {
	remote, err := web.NewRemote(base)
	if err != nil {
		return err
	}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if err := remote.Key(ctx, key); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		fmt.Printf("⌨️  %s\n", key)
	}
	st, err := remote.Status(ctx)
	if err != nil {
		return err
	}
	printStatus(st, false)
	return nil
}

// watchScene prints the pose readout whenever it changes and marks frames
// that carry a muzzle flash.
func watchScene(ctx context.Context, base string) error {
	var last string
	lastFlash := false
	return web.WatchScene(ctx, base, func(f render.Frame) {
		readout, flash := "", false
		for _, c := range f.Commands {
			switch c.Kind {
			case render.KindText:
				readout = strings.Join(c.Lines, " ")
			case render.KindCircle:
				// The flash is the only circle drawn after the readout
				flash = readout != ""
			}
		}
		if readout == last && flash == lastFlash {
			return
		}
		line := fmt.Sprintf("%s  (%d commands)", readout, len(f.Commands))
		if flash {
			line = "🔥 " + line
		}
		fmt.Println(line)
		last, lastFlash = readout, flash
	})
}
