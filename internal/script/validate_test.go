package script

import (
	"errors"
	"strings"
	"testing"
)

// --- Validate Tests ---

func validScript() *Script {
	return &Script{
		Variables: map[string]string{
			"appVendor":  "Acme",
			"appName":    "Widget",
			"appVersion": "1.2.3",
		},
		Sections: []Section{
			{
				Phase: PhasePreInstallation,
				Commands: []Command{
					{Name: "Show-InstallationWelcome", Parameters: map[string]any{"CloseApps": "widget"}},
				},
			},
			{
				Phase: PhaseInstallation,
				Commands: []Command{
					{Name: "Execute-MSI", Parameters: map[string]any{"Action": "Install", "Path": "widget.msi"}},
				},
			},
		},
	}
}

func TestValidate_ValidScript(t *testing.T) {
	if err := Validate(validScript()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NilScript(t *testing.T) {
	err := Validate(nil)
	if !errors.Is(err, ErrInvalidScript) {
		t.Errorf("expected ErrInvalidScript, got %v", err)
	}
}

func TestValidate_NoSections(t *testing.T) {
	err := Validate(&Script{})
	if !errors.Is(err, ErrInvalidScript) {
		t.Errorf("expected ErrInvalidScript, got %v", err)
	}
}

func TestValidate_UnknownPhase(t *testing.T) {
	s := validScript()
	s.Sections[0].Phase = "reboot"

	err := Validate(s)
	if !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("expected ErrUnknownPhase, got %v", err)
	}
}

func TestValidate_DuplicatePhase(t *testing.T) {
	s := validScript()
	s.Sections = append(s.Sections, Section{Phase: PhaseInstallation})

	err := Validate(s)
	if !errors.Is(err, ErrDuplicatePhase) {
		t.Errorf("expected ErrDuplicatePhase, got %v", err)
	}
}

func TestValidate_UnknownCommand(t *testing.T) {
	s := validScript()
	s.Sections[1].Commands = append(s.Sections[1].Commands, Command{Name: "Format-Disk"})

	err := Validate(s)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
	// The message names the offending phase
	if !strings.Contains(err.Error(), string(PhaseInstallation)) {
		t.Errorf("error should mention the phase: %v", err)
	}
}

func TestValidate_NonScalarParameter(t *testing.T) {
	s := validScript()
	s.Sections[1].Commands[0].Parameters["AddParameters"] = []string{"/L*v", "log.txt"}

	err := Validate(s)
	if !errors.Is(err, ErrNonScalarParameter) {
		t.Errorf("expected ErrNonScalarParameter, got %v", err)
	}
}

func TestValidate_ScalarParameterKinds(t *testing.T) {
	s := validScript()
	s.Sections[0].Commands[0].Parameters = map[string]any{
		"CloseApps":          "widget",
		"CloseAppsCountdown": float64(60),
		"AllowDefer":         true,
		"DeferTimes":         3,
	}

	if err := Validate(s); err != nil {
		t.Fatalf("scalars should validate: %v", err)
	}
}

func TestValidate_SectionOrderNotChecked(t *testing.T) {
	s := validScript()
	s.Sections[0], s.Sections[1] = s.Sections[1], s.Sections[0]

	if err := Validate(s); err != nil {
		t.Fatalf("section order should not matter: %v", err)
	}
}

// --- Allow-List Tests ---

func TestKnownCommand(t *testing.T) {
	if !KnownCommand("Execute-MSI") {
		t.Error("Execute-MSI should be known")
	}
	if KnownCommand("Invoke-Expression") {
		t.Error("Invoke-Expression should not be known")
	}
}

func TestCommandNames_Sorted(t *testing.T) {
	names := CommandNames()
	if len(names) == 0 {
		t.Fatal("command list should not be empty")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestSpec(t *testing.T) {
	spec, ok := Spec("Execute-MSI")
	if !ok {
		t.Fatal("Execute-MSI should have a spec")
	}
	if len(spec.Required) != 2 {
		t.Errorf("Execute-MSI required = %v", spec.Required)
	}

	if _, ok := Spec("Nope"); ok {
		t.Error("unknown command should have no spec")
	}
}

// --- Phase Tests ---

func TestKnownPhase(t *testing.T) {
	for _, p := range CanonicalOrder {
		if !KnownPhase(p) {
			t.Errorf("%s should be known", p)
		}
	}
	if KnownPhase("cleanup") {
		t.Error("cleanup should not be a known phase")
	}
}

func TestScript_Section(t *testing.T) {
	s := validScript()

	if sec := s.Section(PhaseInstallation); sec == nil || sec.Phase != PhaseInstallation {
		t.Error("Section should find the installation section")
	}
	if sec := s.Section(PhaseUninstallation); sec != nil {
		t.Error("Section should return nil for a missing phase")
	}
}
