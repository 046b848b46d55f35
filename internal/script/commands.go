package script

import "sort"

// CommandSpec — описание команды тулкита из allow-list.
type CommandSpec struct {
	// Required — обязательные параметры. Команда без них пропускается
	// рендерером с предупреждением.
	Required []string

	// Optional — известные необязательные параметры.
	// Параметры вне Required+Optional игнорируются рендерером.
	Optional []string
}

// allowedCommands — фиксированный allow-list функций тулкита.
//
// Команда вне этого списка — структурная ошибка валидации IR.
var allowedCommands = map[string]CommandSpec{
	"Execute-MSI": {
		Required: []string{"Action", "Path"},
		Optional: []string{"Parameters", "Transform", "AddParameters"},
	},
	"Execute-Process": {
		Required: []string{"Path"},
		Optional: []string{"Parameters", "WindowStyle", "IgnoreExitCodes", "WaitForMsiExec"},
	},
	"Execute-ProcessAsUser": {
		Required: []string{"Path"},
		Optional: []string{"Parameters", "Wait"},
	},
	"Write-Log": {
		Required: []string{"Message"},
		Optional: []string{"Severity", "Source"},
	},
	"Show-InstallationWelcome": {
		Required: nil,
		Optional: []string{"CloseApps", "CloseAppsCountdown", "AllowDefer", "DeferTimes", "CheckDiskSpace", "PersistPrompt"},
	},
	"Show-InstallationProgress": {
		Required: nil,
		Optional: []string{"StatusMessage"},
	},
	"Show-InstallationPrompt": {
		Required: []string{"Message"},
		Optional: []string{"ButtonRightText", "Icon", "NoWait"},
	},
	"Close-InstallationProgress": {
		Required: nil,
		Optional: nil,
	},
	"Remove-MSIApplications": {
		Required: []string{"Name"},
		Optional: []string{"Exact", "FilterApplication"},
	},
	"Copy-File": {
		Required: []string{"Path", "Destination"},
		Optional: []string{"Recurse"},
	},
	"Remove-File": {
		Required: []string{"Path"},
		Optional: []string{"Recurse"},
	},
	"Set-RegistryKey": {
		Required: []string{"Key"},
		Optional: []string{"Name", "Value", "Type", "SID"},
	},
	"Remove-RegistryKey": {
		Required: []string{"Key"},
		Optional: []string{"Name", "Recurse", "SID"},
	},
	"New-Shortcut": {
		Required: []string{"Path", "TargetPath"},
		Optional: []string{"Arguments", "IconLocation", "Description", "WorkingDirectory"},
	},
	"Remove-Shortcut": {
		Required: []string{"Path"},
		Optional: nil,
	},
	"Start-ServiceAndDependencies": {
		Required: []string{"Name"},
		Optional: nil,
	},
	"Stop-ServiceAndDependencies": {
		Required: []string{"Name"},
		Optional: nil,
	},
}

// KnownCommand проверяет, принадлежит ли имя команды allow-list.
func KnownCommand(name string) bool {
	_, ok := allowedCommands[name]
	return ok
}

// Spec возвращает описание команды и признак её наличия в allow-list.
func Spec(name string) (CommandSpec, bool) {
	spec, ok := allowedCommands[name]
	return spec, ok
}

// CommandNames возвращает отсортированный список имён allow-list.
func CommandNames() []string {
	names := make([]string, 0, len(allowedCommands))
	for name := range allowedCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
