package generator

import (
	"fmt"
	"strings"

	"github.com/shaiso/Packsmith/internal/domain"
	"github.com/shaiso/Packsmith/internal/script"
)

// systemPrompt — постоянная системная инструкция.
//
// Генерация ограничена закрытой схемой, поэтому промпт описывает
// намерение, а схема отвечает за форму.
const systemPrompt = `You are an expert generator of enterprise deployment scripts built on the
PowerShell App Deployment Toolkit. Given installer metadata and user
requirements, produce an ordered set of lifecycle sections, each containing
commands from the toolkit function set you are offered.

Requirements:
1. Use Execute-MSI for MSI installers and Execute-Process for EXE installers.
2. Open the pre-installation phase with Show-InstallationWelcome and
   Show-InstallationProgress.
3. Log the outcome of every phase with Write-Log.
4. Populate the uninstallation phases so the package can be removed silently.
5. Set the variables appVendor, appName and appVersion from the metadata.
6. Only use commands you are offered; never invent new ones.`

// buildMessages собирает диалог для генерирующей способности.
func buildMessages(meta domain.InstallerMetadata, userNotes string) []Message {
	var b strings.Builder

	b.WriteString("## Installer Information\n")
	fmt.Fprintf(&b, "Application Name: %s\n", meta.Name)
	fmt.Fprintf(&b, "Version: %s\n", meta.Version)
	fmt.Fprintf(&b, "Vendor: %s\n", meta.Vendor)
	fmt.Fprintf(&b, "Installer Type: %s\n", strings.ToUpper(string(meta.Kind)))
	fmt.Fprintf(&b, "Architecture: %s\n", meta.Architecture)
	if meta.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", meta.Language)
	}
	if meta.SilentArgs != "" {
		fmt.Fprintf(&b, "Silent Install Arguments: %s\n", meta.SilentArgs)
	}
	if meta.UninstallArgs != "" {
		fmt.Fprintf(&b, "Uninstall Arguments: %s\n", meta.UninstallArgs)
	}

	if notes := strings.TrimSpace(userNotes); notes != "" {
		b.WriteString("\n## Additional Requirements\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}

	b.WriteString("\n## Task\n")
	b.WriteString("Produce the structured deployment script for this installer. " +
		"Cover installation and uninstallation lifecycles.")

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// correctionMessage собирает корректирующую реплику после провала валидации.
func correctionMessage(validationErr error) Message {
	var b strings.Builder

	b.WriteString("The previous response did not conform to the required structure:\n")
	fmt.Fprintf(&b, "- %v\n", validationErr)
	b.WriteString("\nAllowed command names: ")
	b.WriteString(strings.Join(script.CommandNames(), ", "))
	b.WriteString(".\nAllowed phases: ")
	for i, p := range script.CanonicalOrder {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(p))
	}
	b.WriteString(".\nEmit a corrected script that strictly conforms to the schema.")

	return Message{Role: "user", Content: b.String()}
}
