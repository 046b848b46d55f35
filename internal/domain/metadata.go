package domain

// Architecture — архитектура процессора, для которой собран инсталлятор.
type Architecture string

const (
	ArchX86     Architecture = "x86"
	ArchX64     Architecture = "x64"
	ArchARM64   Architecture = "arm64"
	ArchUnknown Architecture = "unknown"
)

// InstallerKind — тип артефакта инсталлятора.
type InstallerKind string

const (
	KindMSI     InstallerKind = "msi"
	KindEXE     InstallerKind = "exe"
	KindUnknown InstallerKind = "unknown"
)

// InstallerMetadata — нормализованные метаданные инсталлятора.
//
// Создаётся экстрактором один раз на package и дальше не изменяется.
// Часть полей может отсутствовать (не все форматы дают полную информацию).
type InstallerMetadata struct {
	// Name — имя приложения (например, "Adobe Reader").
	Name string `json:"name"`

	// Version — версия приложения.
	Version string `json:"version"`

	// Vendor — производитель.
	Vendor string `json:"vendor"`

	// Architecture — архитектура: x86, x64, arm64, unknown.
	Architecture Architecture `json:"architecture"`

	// Kind — тип инсталлятора: msi, exe, unknown.
	Kind InstallerKind `json:"kind"`

	// SilentArgs — аргументы тихой установки. Может быть пустым.
	SilentArgs string `json:"silent_args,omitempty"`

	// UninstallArgs — аргументы тихого удаления. Может быть пустым.
	UninstallArgs string `json:"uninstall_args,omitempty"`

	// Language — язык продукта (код из свойств MSI либо "EN").
	Language string `json:"language,omitempty"`
}

// IsZero возвращает true, если метаданные ещё не извлечены.
func (m InstallerMetadata) IsZero() bool {
	return m.Name == "" && m.Version == "" && m.Vendor == ""
}
