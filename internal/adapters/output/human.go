package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/auriga-audio/auriga/internal/core"
	"github.com/auriga-audio/auriga/pkg/aw"
)

// HumanPrinter prints human-readable output.
type HumanPrinter struct{}

// Print renders human output.
func (HumanPrinter) Print(v any) error {
	switch data := v.(type) {
	case core.ZonesResult:
		return printZones(data)
	case core.StatusResult:
		return printStatus(data)
	case core.SnapshotResult:
		return printSnapshot(data)
	case core.PlaylistsResult:
		return printPlaylists(data)
	case core.AnnouncementsResult:
		return printAnnouncements(data)
	case core.SchedulesResult:
		return printSchedules(data)
	case core.RawResult:
		return printRaw(data)
	default:
		_, err := fmt.Fprintln(os.Stdout, "ok")
		return err
	}
}

func printZones(result core.ZonesResult) error {
	rows := pterm.TableData{{"NAME", "ZONE_ID", "CAPS"}}
	for _, z := range result.Zones {
		rows = append(rows, []string{z.Name, z.ZoneID, capsString(z.Caps)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printStatus(result core.StatusResult) error {
	line := fmt.Sprintf("%s  [%s]", result.Zone.Name, lifecycleLabel(result.State.State))
	if np := result.State.NowPlaying; np != nil {
		line += "  " + formatNowPlaying(np)
	}
	line += fmt.Sprintf("  vol %d%%", int(result.State.Volume*100+0.5))
	_, err := fmt.Fprintln(os.Stdout, line)
	return err
}

func printSnapshot(result core.SnapshotResult) error {
	snap := result.Snapshot
	modes := []string{}
	if snap.IsShuffleOn {
		modes = append(modes, "shuffle")
	}
	if snap.IsRepeatOn {
		modes = append(modes, "repeat")
	}
	header := fmt.Sprintf("target %s", snap.Target)
	if len(modes) > 0 {
		header += "  (" + strings.Join(modes, ", ") + ")"
	}
	if _, err := fmt.Fprintln(os.Stdout, header); err != nil {
		return err
	}

	rows := pterm.TableData{{"ZONE", "STATE", "NOW PLAYING", "VOL"}}
	for _, z := range snap.Zones {
		playing := ""
		if z.NowPlaying != nil {
			playing = formatNowPlaying(z.NowPlaying)
		}
		rows = append(rows, []string{
			z.Name,
			lifecycleLabel(z.State),
			playing,
			fmt.Sprintf("%d%%", int(z.Volume*100+0.5)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printPlaylists(result core.PlaylistsResult) error {
	selected := map[string]bool{}
	for _, id := range result.Selected {
		selected[id] = true
	}
	rows := pterm.TableData{{"", "NAME", "PLAYLIST_ID", "TRACKS"}}
	for _, pl := range result.Playlists {
		mark := ""
		if selected[pl.ID] {
			mark = "*"
		}
		rows = append(rows, []string{mark, pl.Name, pl.ID, fmt.Sprintf("%d", len(pl.Tracks))})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printAnnouncements(result core.AnnouncementsResult) error {
	rows := pterm.TableData{{"TITLE", "ANNOUNCEMENT_ID", "LEN"}}
	for _, ann := range result.Announcements {
		rows = append(rows, []string{ann.Title, ann.ID, formatDuration(ann.Duration)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printSchedules(result core.SchedulesResult) error {
	rows := pterm.TableData{{"TITLE", "TRIGGERS_AT", "SCHEDULE_ID"}}
	for _, sched := range result.Schedules {
		at := time.Unix(sched.TriggerAt, 0).Format(time.RFC3339)
		rows = append(rows, []string{sched.Title, at, sched.ID})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printRaw(result core.RawResult) error {
	return JSONPrinter{}.Print(result.Data)
}

func formatNowPlaying(np *aw.NowPlaying) string {
	title := np.Title
	if np.Type == aw.ItemAnnouncement {
		title = "announcement: " + title
	} else if np.Playlist != "" {
		title = fmt.Sprintf("%s (%s)", title, np.Playlist)
	}
	if np.Duration > 0 {
		title += fmt.Sprintf("  %s/%s", formatDuration(np.Elapsed), formatDuration(np.Duration))
	}
	if !np.IsPlaying {
		title += "  paused"
	}
	return title
}

func lifecycleLabel(state string) string {
	switch state {
	case aw.ZoneLive:
		return pterm.FgGreen.Sprint(state)
	case aw.ZoneStandby:
		return pterm.FgYellow.Sprint(state)
	case aw.ZoneOffline:
		return pterm.FgRed.Sprint(state)
	default:
		return state
	}
}

func capsString(caps map[string]any) string {
	out := make([]string, 0, len(caps))
	for name, val := range caps {
		if enabled, ok := val.(bool); ok && enabled {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func formatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
