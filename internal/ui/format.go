package ui

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/bnema/riverbridge/internal/river"
	"github.com/bnema/riverbridge/internal/wayland"
)

// river uses 32 tags, one bit each
const tagCount = 32

// TagList turns a tag bitmask into 1-based tag numbers, e.g. 0b101 -> "1,3"
func TagList(mask uint32) string {
	if mask == 0 {
		return "-"
	}
	parts := make([]string, 0, bits.OnesCount32(mask))
	for i := 0; i < tagCount; i++ {
		if mask&(1<<i) != 0 {
			parts = append(parts, strconv.Itoa(i+1))
		}
	}
	return strings.Join(parts, ",")
}

// TagStrip renders the first n tags, highlighting focused, urgent and
// occupied ones.
func TagStrip(focused, urgent uint32, views []uint32, n int) string {
	if n <= 0 || n > tagCount {
		n = tagCount
	}
	var occupied uint32
	for _, v := range views {
		occupied |= v
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		bit := uint32(1) << i
		label := strconv.Itoa(i + 1)
		switch {
		case urgent&bit != 0:
			b.WriteString(UrgentTagStyle.Render("!" + label))
		case focused&bit != 0:
			b.WriteString(FocusedTagStyle.Render("[" + label + "]"))
		case occupied&bit != 0:
			b.WriteString(OccupiedTagStyle.Render(" " + label + " "))
		default:
			b.WriteString(EmptyTagStyle.Render(" " + label + " "))
		}
	}
	return b.String()
}

// LayoutLabel renders a layout name, telling unknown and cleared apart
func LayoutLabel(name *string, known bool) string {
	switch {
	case !known:
		return SubtleStyle.Render("unknown")
	case name == nil:
		return SubtleStyle.Render("none")
	default:
		return *name
	}
}

// FormatOutput renders one output block of the status view
func FormatOutput(st river.OutputState, focused bool) string {
	icon := SubtleStyle.Render(IconIdle)
	if focused {
		icon = SuccessStyle.Render(IconFocused)
	}

	var b strings.Builder
	b.WriteString(icon + " " + SubheaderStyle.Render(st.ID) + "\n")
	b.WriteString("  Tags:    " + TagStrip(st.FocusedTags, st.UrgentTags, st.Views, 9) + "\n")
	b.WriteString(fmt.Sprintf("  Views:   %d\n", len(st.Views)))
	b.WriteString("  Layout:  " + LayoutLabel(st.LayoutName, st.LayoutKnown))
	return b.String()
}

// FormatSnapshot renders the full status view
func FormatSnapshot(snap river.Snapshot) string {
	var b strings.Builder
	b.WriteString(FormatHeader("RIVER STATUS") + "\n\n")

	if len(snap.Outputs) == 0 {
		b.WriteString(WarningStyle.Render("No outputs tracked") + "\n")
	}
	for _, o := range snap.Outputs {
		b.WriteString(BoxStyle.Render(FormatOutput(o, o.ID == snap.Seat.FocusedOutput)) + "\n")
	}

	seat := []string{
		"Focused view: " + valueOr(snap.Seat.FocusedView, "-"),
		"Mode:         " + valueOr(snap.Seat.Mode, "-"),
	}
	b.WriteString("\n" + SubheaderStyle.Render("Seat") + "\n")
	for _, line := range seat {
		b.WriteString("  " + TextStyle.Render(line) + "\n")
	}
	return b.String()
}

// FormatEvent renders one event as a single line for the watch stream
func FormatEvent(e river.Event) string {
	kind := EventKindStyle.Render(fmt.Sprintf("%-16s", e.Kind()))

	var detail string
	switch ev := e.(type) {
	case river.FocusedTagsEvent:
		detail = ev.Output + " tags=" + TagList(ev.Tags)
	case river.UrgentTagsEvent:
		detail = ev.Output + " tags=" + TagList(ev.Tags)
	case river.ViewTagsEvent:
		views := make([]string, len(ev.Tags))
		for i, t := range ev.Tags {
			views[i] = TagList(t)
		}
		detail = fmt.Sprintf("%s views=[%s]", ev.Output, strings.Join(views, " "))
	case river.LayoutNameEvent:
		if ev.Cleared() {
			detail = ev.Output + " layout cleared"
		} else {
			detail = fmt.Sprintf("%s layout=%q", ev.Output, *ev.Name)
		}
	case river.FocusedOutputEvent:
		detail = outputLabel(ev.Output, ev.ObjectID)
	case river.UnfocusedOutputEvent:
		detail = outputLabel(ev.Output, ev.ObjectID)
	case river.FocusedViewEvent:
		detail = strconv.Quote(ev.Title)
	case river.ModeEvent:
		detail = ev.Name
	}
	return kind + " " + detail
}

func outputLabel(name string, objectID uint32) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("wl_output@%d", objectID)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// FormatOutputs renders the wl_output list of the outputs command
func FormatOutputs(outputs []wayland.OutputInfo) string {
	if len(outputs) == 0 {
		return InfoStyle.Render("No outputs detected") + "\n"
	}

	var b strings.Builder
	b.WriteString(FormatHeader(fmt.Sprintf("Detected %d output(s)", len(outputs))) + "\n")
	for _, o := range outputs {
		fmt.Fprintf(&b, "\n%s\n", SubheaderStyle.Render(o.Identifier()))
		fmt.Fprintf(&b, "  Index:       %d\n", o.Index)
		if o.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", o.Description)
		}
		fmt.Fprintf(&b, "  Object:      wl_output@%d (v%d)\n", o.ObjectID, o.Version)
	}
	return b.String()
}
