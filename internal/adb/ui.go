package adb

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const uiDumpPath = "/sdcard/window_dump.xml"

// Bounds is an element's on-screen rectangle.
type Bounds struct {
	Left, Top, Right, Bottom int
}

// Center returns the tap point for the rectangle.
func (b Bounds) Center() (x, y int) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", b.Left, b.Top, b.Right, b.Bottom)
}

// UIElement is a clickable element from the accessibility hierarchy.
type UIElement struct {
	Text        string
	ContentDesc string
	ResourceID  string
	Class       string
	Bounds      Bounds
}

// UILayout dumps the current accessibility hierarchy and returns the
// clickable elements it contains along with the raw dump XML.
func (m *Manager) UILayout(ctx context.Context) ([]UIElement, string, error) {
	res, err := m.Shell(ctx, "uiautomator dump "+uiDumpPath, 0)
	if err != nil {
		return nil, "", err
	}
	if res.ExitCode != 0 {
		return nil, "", fmt.Errorf("uiautomator dump exited %d: %s", res.ExitCode, res.Output)
	}

	dump, err := m.Shell(ctx, "cat "+uiDumpPath, 0)
	if err != nil {
		return nil, "", err
	}
	if dump.ExitCode != 0 {
		return nil, "", fmt.Errorf("read ui dump exited %d: %s", dump.ExitCode, dump.Output)
	}

	elements, err := ParseUIHierarchy(dump.Output)
	if err != nil {
		return nil, "", err
	}
	return elements, dump.Output, nil
}

type uiNode struct {
	Text        string   `xml:"text,attr"`
	ContentDesc string   `xml:"content-desc,attr"`
	ResourceID  string   `xml:"resource-id,attr"`
	Class       string   `xml:"class,attr"`
	Clickable   string   `xml:"clickable,attr"`
	Bounds      string   `xml:"bounds,attr"`
	Nodes       []uiNode `xml:"node"`
}

// ParseUIHierarchy extracts clickable elements from a uiautomator XML dump.
// Elements with no text, description, or resource id are skipped since a
// client cannot meaningfully address them.
func ParseUIHierarchy(dump string) ([]UIElement, error) {
	start := strings.Index(dump, "<")
	if start < 0 {
		return nil, fmt.Errorf("no XML found in ui dump")
	}

	var root struct {
		Nodes []uiNode `xml:"node"`
	}
	if err := xml.Unmarshal([]byte(dump[start:]), &root); err != nil {
		return nil, fmt.Errorf("parse ui dump: %w", err)
	}

	var elements []UIElement
	var walk func(nodes []uiNode)
	walk = func(nodes []uiNode) {
		for _, n := range nodes {
			if n.Clickable == "true" && (n.Text != "" || n.ContentDesc != "" || n.ResourceID != "") {
				bounds, err := parseBounds(n.Bounds)
				if err == nil {
					elements = append(elements, UIElement{
						Text:        n.Text,
						ContentDesc: n.ContentDesc,
						ResourceID:  n.ResourceID,
						Class:       n.Class,
						Bounds:      bounds,
					})
				}
			}
			walk(n.Nodes)
		}
	}
	walk(root.Nodes)
	return elements, nil
}

var boundsRe = regexp.MustCompile(`^\[(\d+),(\d+)\]\[(\d+),(\d+)\]$`)

func parseBounds(s string) (Bounds, error) {
	match := boundsRe.FindStringSubmatch(s)
	if match == nil {
		return Bounds{}, fmt.Errorf("invalid bounds %q", s)
	}
	nums := make([]int, 4)
	for i := 0; i < 4; i++ {
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		nums[i] = n
	}
	return Bounds{Left: nums[0], Top: nums[1], Right: nums[2], Bottom: nums[3]}, nil
}

// FormatUIElements renders elements as readable lines for a text response.
func FormatUIElements(elements []UIElement) string {
	if len(elements) == 0 {
		return "No clickable elements found on screen"
	}
	var sb strings.Builder
	for i, el := range elements {
		if i > 0 {
			sb.WriteByte('\n')
		}
		x, y := el.Bounds.Center()
		fmt.Fprintf(&sb, "Element %d:", i+1)
		if el.Text != "" {
			fmt.Fprintf(&sb, "\n  Text: %s", el.Text)
		}
		if el.ContentDesc != "" {
			fmt.Fprintf(&sb, "\n  Description: %s", el.ContentDesc)
		}
		if el.ResourceID != "" {
			fmt.Fprintf(&sb, "\n  Resource ID: %s", el.ResourceID)
		}
		if el.Class != "" {
			fmt.Fprintf(&sb, "\n  Class: %s", el.Class)
		}
		fmt.Fprintf(&sb, "\n  Bounds: %s", el.Bounds)
		fmt.Fprintf(&sb, "\n  Center: (%d, %d)", x, y)
	}
	return sb.String()
}
