package adb

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Packages lists package names installed on the device. thirdPartyOnly
// restricts the listing to user-installed packages (pm's -3 flag).
// includePaths adds pm's -f flag, yielding "name=/path/to/base.apk" entries.
func (m *Manager) Packages(ctx context.Context, thirdPartyOnly, includePaths bool) ([]string, error) {
	cmd := "pm list packages"
	if thirdPartyOnly {
		cmd += " -3"
	}
	if includePaths {
		cmd += " -f"
	}
	res, err := m.Shell(ctx, cmd, 0)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("pm list packages exited %d: %s", res.ExitCode, res.Output)
	}

	var pkgs []string
	for _, line := range strings.Split(res.Output, "\n") {
		line = strings.TrimSpace(line)
		entry, ok := strings.CutPrefix(line, "package:")
		if !ok || entry == "" {
			continue
		}
		// With -f pm prints "package:<apk path>=<name>". APK paths may
		// themselves contain '=', so split on the last one and flip the
		// entry so the package name leads either way.
		if includePaths {
			if i := strings.LastIndex(entry, "="); i > 0 && i < len(entry)-1 {
				entry = entry[i+1:] + "=" + entry[:i]
			}
		}
		pkgs = append(pkgs, entry)
	}
	sort.Strings(pkgs)
	return pkgs, nil
}

// PackageActionIntents lists the intent actions a package's components
// declare, extracted from the package manager's dump.
func (m *Manager) PackageActionIntents(ctx context.Context, pkg string) ([]string, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return nil, fmt.Errorf("empty package name")
	}
	if err := validPackageName(pkg); err != nil {
		return nil, err
	}

	res, err := m.Shell(ctx, "dumpsys package "+pkg, 0)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("dumpsys package exited %d: %s", res.ExitCode, res.Output)
	}

	seen := make(map[string]struct{})
	var actions []string
	for _, line := range strings.Split(res.Output, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "Action:")
		if !ok {
			continue
		}
		action := strings.Trim(strings.TrimSpace(rest), `"`)
		if action == "" {
			continue
		}
		if _, dup := seen[action]; dup {
			continue
		}
		seen[action] = struct{}{}
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions, nil
}

// validPackageName rejects strings that could smuggle shell metacharacters
// into the dumpsys invocation.
func validPackageName(pkg string) error {
	for _, r := range pkg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_':
		default:
			return fmt.Errorf("invalid package name %q", pkg)
		}
	}
	return nil
}
