package adb

import (
	"context"
	"strings"
	"testing"
)

func TestPackages(t *testing.T) {
	out := "package:com.android.settings\npackage:com.example.app\npackage:android\n"
	conn := onlineConn("a", out, 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	pkgs, err := m.Packages(context.Background(), false, false)
	if err != nil {
		t.Fatalf("Packages: %v", err)
	}
	want := []string{"android", "com.android.settings", "com.example.app"}
	if len(pkgs) != len(want) {
		t.Fatalf("pkgs = %v", pkgs)
	}
	for i := range want {
		if pkgs[i] != want[i] {
			t.Fatalf("pkgs = %v, want %v", pkgs, want)
		}
	}
	if !strings.Contains(conn.commands[0], "pm list packages") {
		t.Fatalf("command = %q", conn.commands[0])
	}
	if strings.Contains(conn.commands[0], " -3") {
		t.Fatalf("third-party flag should be absent: %q", conn.commands[0])
	}
}

func TestPackagesThirdPartyFlag(t *testing.T) {
	conn := onlineConn("a", "package:com.example.app\n", 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	if _, err := m.Packages(context.Background(), true, false); err != nil {
		t.Fatalf("Packages: %v", err)
	}
	if !strings.Contains(conn.commands[0], "pm list packages -3") {
		t.Fatalf("command = %q", conn.commands[0])
	}
}

func TestPackagesWithPaths(t *testing.T) {
	out := "package:/data/app/~~aZ==/com.example.app-bQ==/base.apk=com.example.app\n"
	conn := onlineConn("a", out, 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	pkgs, err := m.Packages(context.Background(), false, true)
	if err != nil {
		t.Fatalf("Packages: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0] != "com.example.app=/data/app/~~aZ==/com.example.app-bQ==/base.apk" {
		t.Fatalf("pkgs = %v", pkgs)
	}
	if !strings.Contains(conn.commands[0], "pm list packages -f") {
		t.Fatalf("command = %q", conn.commands[0])
	}
}

func TestPackagesCommandFailure(t *testing.T) {
	conn := onlineConn("a", "Error: unknown option\n", 1)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	if _, err := m.Packages(context.Background(), false, false); err == nil {
		t.Fatal("expected error for nonzero exit")
	}
}

func TestPackageActionIntents(t *testing.T) {
	dump := `Activity Resolver Table:
  Non-Data Actions:
      Action: "android.intent.action.MAIN"
        com.example/.MainActivity
      Action: "android.intent.action.VIEW"
        com.example/.ViewerActivity
      Action: "android.intent.action.MAIN"
        com.example/.OtherActivity
`
	conn := onlineConn("a", dump, 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	actions, err := m.PackageActionIntents(context.Background(), "com.example.app")
	if err != nil {
		t.Fatalf("PackageActionIntents: %v", err)
	}
	want := []string{"android.intent.action.MAIN", "android.intent.action.VIEW"}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v", actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("actions = %v, want %v", actions, want)
		}
	}
}

func TestPackageActionIntentsRejectsUnsafeNames(t *testing.T) {
	m := NewManager(&fakeDialer{conns: []Conn{onlineConn("a", "", 0)}})

	for _, bad := range []string{"", "com.example; rm -rf /", "com.example && reboot", "a b"} {
		if _, err := m.PackageActionIntents(context.Background(), bad); err == nil {
			t.Fatalf("expected rejection for %q", bad)
		}
	}
}

func TestParseGetprop(t *testing.T) {
	out := `[ro.product.model]: [Pixel 8]
[ro.build.version.release]: [14]
[ro.build.version.sdk]: [34]
not a property line
[empty.value]: []
`
	props := ParseGetprop(out)
	if props["ro.product.model"] != "Pixel 8" {
		t.Fatalf("model = %q", props["ro.product.model"])
	}
	if props["ro.build.version.sdk"] != "34" {
		t.Fatalf("sdk = %q", props["ro.build.version.sdk"])
	}
	if v, ok := props["empty.value"]; !ok || v != "" {
		t.Fatalf("empty value = %q (%v)", v, ok)
	}
}

func TestInfo(t *testing.T) {
	out := `[ro.product.model]: [Pixel 8]
[ro.product.manufacturer]: [Google]
[ro.build.version.release]: [14]
[ro.build.version.sdk]: [34]
[ro.build.id]: [UQ1A.240105.004]
[ro.product.cpu.abi]: [arm64-v8a]
`
	conn := onlineConn("serial-1", out, 0)
	m := NewManager(&fakeDialer{conns: []Conn{conn}})

	info, err := m.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Serial != "serial-1" || info.Model != "Pixel 8" || info.SDKVersion != "34" {
		t.Fatalf("info = %+v", info)
	}
}
