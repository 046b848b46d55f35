package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Packsmith/internal/domain"
)

func testExtractor() *Extractor {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- Extract Dispatch Tests ---

func TestExtract_MissingFile(t *testing.T) {
	_, err := testExtractor().Extract(context.Background(), "/nonexistent/setup.msi")

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
	if extractErr.Path != "/nonexistent/setup.msi" {
		t.Errorf("error path = %s", extractErr.Path)
	}
}

func TestExtract_Directory(t *testing.T) {
	dir := t.TempDir()

	_, err := testExtractor().Extract(context.Background(), dir)

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
}

func TestExtract_UnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.deb")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := testExtractor().Extract(context.Background(), path)

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
}

func TestExtract_EXE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Firefox-Setup-115.0.1.exe")
	header := append([]byte("MZ"), []byte("Nullsoft Install System v3.08")...)
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := testExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Kind != domain.KindEXE {
		t.Errorf("kind = %s, want exe", meta.Kind)
	}
	if meta.SilentArgs != "/S" {
		t.Errorf("silent args = %q, want /S", meta.SilentArgs)
	}
	if meta.Name != "Firefox" {
		t.Errorf("name = %q, want Firefox", meta.Name)
	}
	if meta.Version != "115.0.1" {
		t.Errorf("version = %q, want 115.0.1", meta.Version)
	}
	if meta.Vendor != "Unknown" {
		t.Errorf("vendor = %q, want Unknown", meta.Vendor)
	}
	if meta.Architecture != domain.ArchUnknown {
		t.Errorf("architecture = %s, want unknown", meta.Architecture)
	}
}

// --- EXE Wrapper Classification Tests ---

func TestClassifyEXEWrapper(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"inno", "This installer was built with Inno Setup 6.2", "/SILENT /NORESTART"},
		{"nsis", "Nullsoft Install System", "/S"},
		{"installshield", "InstallShield Wizard", `/s /v"/qn"`},
		{"advanced installer", "Created by Advanced Installer 20.1", "/quiet"},
		{"wix burn", "wixburn bundle stub", "/quiet /norestart"},
		{"unknown", "plain executable payload", "/S"},
		{"case insensitive", "NULLSOFT install system", "/S"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyEXEWrapper([]byte(tt.header)); got != tt.want {
				t.Errorf("classifyEXEWrapper(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestExtractEXE_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.exe")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := testExtractor().extractEXE(path)
	if err != nil {
		t.Fatalf("empty file should still classify: %v", err)
	}
	if meta.SilentArgs != defaultEXESilentArgs {
		t.Errorf("silent args = %q, want default", meta.SilentArgs)
	}
}

// --- Property Output Parsing Tests ---

func TestParsePropertyOutput_TabSeparated(t *testing.T) {
	out := "ProductName\tAcme Widget\nProductVersion\t2.1.0\nManufacturer\tAcme Corp\n"

	props := parsePropertyOutput(out)

	if props["ProductName"] != "Acme Widget" {
		t.Errorf("ProductName = %q", props["ProductName"])
	}
	if props["ProductVersion"] != "2.1.0" {
		t.Errorf("ProductVersion = %q", props["ProductVersion"])
	}
	if props["Manufacturer"] != "Acme Corp" {
		t.Errorf("Manufacturer = %q", props["Manufacturer"])
	}
}

func TestParsePropertyOutput_ColonSeparated(t *testing.T) {
	out := "ProductName: Acme Widget\nTemplate: Intel64;1033\n"

	props := parsePropertyOutput(out)

	if props["ProductName"] != "Acme Widget" {
		t.Errorf("ProductName = %q", props["ProductName"])
	}
	if props["Template"] != "Intel64;1033" {
		t.Errorf("Template = %q", props["Template"])
	}
}

func TestParsePropertyOutput_SkipsMalformedLines(t *testing.T) {
	out := "garbage line without separator\n\t\nProductName\tWidget\n:\nEmptyValue\t\n"

	props := parsePropertyOutput(out)

	if len(props) != 1 {
		t.Errorf("expected 1 property, got %d: %v", len(props), props)
	}
	if props["ProductName"] != "Widget" {
		t.Errorf("ProductName = %q", props["ProductName"])
	}
}

// --- MSI Architecture Tests ---

func TestMSIArchitecture(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		want  domain.Architecture
	}{
		{"intel64 template", map[string]string{"Template": "Intel64;1033"}, domain.ArchX64},
		{"x64 template", map[string]string{"Template": "x64;1033"}, domain.ArchX64},
		{"amd64 platform", map[string]string{"Platform": "AMD64"}, domain.ArchX64},
		{"arm64 template", map[string]string{"Template": "Arm64;1033"}, domain.ArchARM64},
		{"intel template", map[string]string{"Template": "Intel;1033"}, domain.ArchX86},
		{"x86 platform", map[string]string{"Platform": "x86"}, domain.ArchX86},
		{"no hints", map[string]string{}, domain.ArchUnknown},
		{"unrecognized", map[string]string{"Template": "Alpha;1033"}, domain.ArchUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := msiArchitecture(tt.props); got != tt.want {
				t.Errorf("msiArchitecture(%v) = %s, want %s", tt.props, got, tt.want)
			}
		})
	}
}

// --- Filename Heuristic Tests ---

func TestVersionFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Firefox-Setup-115.0.1.exe", "115.0.1"},
		{"widget_v2.4.msi", "2.4"},
		{"app-1.2.3.4-x64.exe", "1.2.3.4"},
		{"setup.exe", "1.0.0"},
		{"/uploads/chrome_99.0.4844.51_win64.msi", "99.0.4844.51"},
	}

	for _, tt := range tests {
		if got := versionFromFilename(tt.path); got != tt.want {
			t.Errorf("versionFromFilename(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBaseNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Firefox-Setup-115.0.1.exe", "Firefox"},
		{"acme_widget_installer_v2.4.msi", "Acme Widget"},
		{"notepadplusplus.msi", "Notepadplusplus"},
		{"setup-1.0.0.exe", "Unknown Application"},
		{"vlc-win64-3.0.18.exe", "Vlc"},
	}

	for _, tt := range tests {
		if got := baseNameFromPath(tt.path); got != tt.want {
			t.Errorf("baseNameFromPath(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
