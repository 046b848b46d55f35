package renderer

import (
	"strings"
	"testing"

	"github.com/shaiso/Packsmith/internal/script"
)

func fullIR() *script.Script {
	return &script.Script{
		Variables: map[string]string{
			"appVersion": "1.2.3",
			"appName":    "Widget",
			"appVendor":  "Acme",
		},
		Sections: []script.Section{
			{
				Phase: script.PhasePreInstallation,
				Commands: []script.Command{
					{Name: "Show-InstallationWelcome", Parameters: map[string]any{"CloseApps": "widget", "AllowDefer": true}},
					{Name: "Show-InstallationProgress", Parameters: map[string]any{"StatusMessage": "Installing Widget..."}},
				},
			},
			{
				Phase: script.PhaseInstallation,
				Commands: []script.Command{
					{Name: "Execute-MSI", Parameters: map[string]any{"Action": "Install", "Path": "widget.msi"}},
				},
			},
			{
				Phase: script.PhaseUninstallation,
				Commands: []script.Command{
					{Name: "Remove-MSIApplications", Parameters: map[string]any{"Name": "Widget"}},
				},
			},
		},
	}
}

// --- Render Tests ---

func TestRender_Deterministic(t *testing.T) {
	first, _ := Render(fullIR())

	for i := 0; i < 10; i++ {
		again, _ := Render(fullIR())
		if again != first {
			t.Fatal("render output should be byte-identical across runs")
		}
	}
}

func TestRender_CanonicalPhaseOrder(t *testing.T) {
	ir := fullIR()
	// Scramble section order; the output must not change
	ir.Sections[0], ir.Sections[2] = ir.Sections[2], ir.Sections[0]

	scrambled, _ := Render(ir)
	canonical, _ := Render(fullIR())

	if scrambled != canonical {
		t.Error("section order in the IR should not affect the output")
	}

	banners := []string{
		"PRE-INSTALLATION", "INSTALLATION", "POST-INSTALLATION",
		"PRE-UNINSTALLATION", "UNINSTALLATION", "POST-UNINSTALLATION",
	}
	last := -1
	for _, banner := range banners {
		at := strings.Index(scrambled, "##*=== "+banner+" ===*##")
		if at < 0 {
			t.Fatalf("missing banner %s", banner)
		}
		if at < last {
			t.Errorf("banner %s out of order", banner)
		}
		last = at
	}
}

func TestRender_MissingPhaseGetsPlaceholder(t *testing.T) {
	out, warnings := Render(fullIR())

	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	// post-installation has no section in the IR
	if !strings.Contains(out, "# (no commands)") {
		t.Error("phases without commands should render a placeholder")
	}
}

func TestRender_VariablesSortedAndQuoted(t *testing.T) {
	out, _ := Render(fullIR())

	nameAt := strings.Index(out, "$appName = 'Widget'")
	vendorAt := strings.Index(out, "$appVendor = 'Acme'")
	versionAt := strings.Index(out, "$appVersion = '1.2.3'")

	if nameAt < 0 || vendorAt < 0 || versionAt < 0 {
		t.Fatalf("variable declarations missing:\n%s", out)
	}
	if !(nameAt < vendorAt && vendorAt < versionAt) {
		t.Error("variables should be sorted by name")
	}
}

func TestRender_CommandFormatting(t *testing.T) {
	out, _ := Render(fullIR())

	// Required parameters first, in spec order; bool as $true
	if !strings.Contains(out, "Execute-MSI -Action 'Install' -Path 'widget.msi'") {
		t.Errorf("Execute-MSI rendered wrong:\n%s", out)
	}
	if !strings.Contains(out, "-AllowDefer $true") {
		t.Error("bool parameter should render as $true")
	}
}

func TestRender_IntegralFloatRendersAsInt(t *testing.T) {
	ir := &script.Script{
		Sections: []script.Section{{
			Phase: script.PhasePreInstallation,
			Commands: []script.Command{
				// JSON numbers arrive as float64
				{Name: "Show-InstallationWelcome", Parameters: map[string]any{"CloseAppsCountdown": float64(60)}},
			},
		}},
	}

	out, warnings := Render(ir)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !strings.Contains(out, "-CloseAppsCountdown 60") {
		t.Errorf("integral float should render without fraction:\n%s", out)
	}
}

func TestRender_MissingRequiredParameterSkipsCommand(t *testing.T) {
	ir := fullIR()
	ir.Sections[1].Commands = []script.Command{
		{Name: "Execute-MSI", Parameters: map[string]any{"Action": "Install"}}, // no Path
	}

	out, warnings := Render(ir)

	if strings.Contains(out, "Execute-MSI") {
		t.Error("command with missing required parameter should be skipped")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], `missing required parameter "Path"`) {
		t.Errorf("warning = %q", warnings[0])
	}
	if !strings.Contains(warnings[0], "installation") {
		t.Errorf("warning should name the phase: %q", warnings[0])
	}
}

func TestRender_UnknownParameterIgnored(t *testing.T) {
	ir := fullIR()
	ir.Sections[1].Commands[0].Parameters["Verbose"] = true

	out, warnings := Render(ir)

	if len(warnings) != 0 {
		t.Errorf("unknown parameter should not warn: %v", warnings)
	}
	if strings.Contains(out, "Verbose") {
		t.Error("unknown parameter should not be rendered")
	}
}

func TestRender_QuoteEscaping(t *testing.T) {
	ir := &script.Script{
		Variables: map[string]string{"appName": "O'Brien's Tool"},
		Sections:  []script.Section{{Phase: script.PhaseInstallation}},
	}

	out, _ := Render(ir)
	if !strings.Contains(out, "$appName = 'O''Brien''s Tool'") {
		t.Errorf("single quotes should be doubled:\n%s", out)
	}
}

func TestRender_ScriptSkeleton(t *testing.T) {
	out, _ := Render(fullIR())

	for _, want := range []string{
		"[CmdletBinding()]",
		"[ValidateSet('Install','Uninstall')]",
		"If ($DeploymentType -ieq 'Install')",
		"Exit-Script -ExitCode 0",
		"Exit-Script -ExitCode 1",
		"Write-Log -Message",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("script should contain %q", want)
		}
	}
}
