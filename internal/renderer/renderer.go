// Package renderer детерминированно разворачивает валидированный IR
// в текст скрипта развёртывания.
//
// Рендер — чистая функция: одинаковый IR всегда даёт байт-в-байт
// одинаковый вывод. Рендер никогда не падает: команды с отсутствующими
// обязательными параметрами пропускаются с предупреждением — частичный
// скрипт, который можно доправить руками, лучше полного отказа.
package renderer

import (
	"bytes"
	"sort"
	"strings"
	"text/template"

	"github.com/shaiso/Packsmith/internal/script"
)

// phaseBanner — заголовки фаз в тексте скрипта.
var phaseBanner = map[script.Phase]string{
	script.PhasePreInstallation:    "PRE-INSTALLATION",
	script.PhaseInstallation:       "INSTALLATION",
	script.PhasePostInstallation:   "POST-INSTALLATION",
	script.PhasePreUninstallation:  "PRE-UNINSTALLATION",
	script.PhaseUninstallation:     "UNINSTALLATION",
	script.PhasePostUninstallation: "POST-UNINSTALLATION",
}

// installPhases — фазы ветки Install в каноническом порядке.
var installPhases = []script.Phase{
	script.PhasePreInstallation,
	script.PhaseInstallation,
	script.PhasePostInstallation,
}

// uninstallPhases — фазы ветки Uninstall в каноническом порядке.
var uninstallPhases = []script.Phase{
	script.PhasePreUninstallation,
	script.PhaseUninstallation,
	script.PhasePostUninstallation,
}

// renderedPhase — фаза с уже развёрнутыми строками команд.
type renderedPhase struct {
	Banner string
	Lines  []string
}

// variable — пара имя/значение для блока объявления переменных.
type variable struct {
	Name  string
	Value string
}

// templateContext — данные для фиксированного шаблона скрипта.
type templateContext struct {
	Variables []variable
	Install   []renderedPhase
	Uninstall []renderedPhase
}

// Render разворачивает IR в текст скрипта.
//
// Фазы обходятся в каноническом порядке независимо от порядка секций
// в IR: порядок секций на выводе не сказывается. Возвращает текст и
// список предупреждений о пропущенных командах (может быть пустым).
func Render(ir *script.Script) (string, []string) {
	var warnings []string

	ctx := templateContext{
		Variables: sortedVariables(ir.Variables),
		Install:   renderPhases(ir, installPhases, &warnings),
		Uninstall: renderPhases(ir, uninstallPhases, &warnings),
	}

	var buf bytes.Buffer
	// Шаблон фиксированный и разобран при инициализации пакета;
	// Execute по шаблону без ветвлений на ошибки не падает.
	if err := scriptTemplate.Execute(&buf, ctx); err != nil {
		warnings = append(warnings, "template execution: "+err.Error())
	}

	return buf.String(), warnings
}

// renderPhases разворачивает команды перечисленных фаз.
// Фазы без секции в IR и пустые секции дают пустой блок с баннером.
func renderPhases(ir *script.Script, phases []script.Phase, warnings *[]string) []renderedPhase {
	rendered := make([]renderedPhase, 0, len(phases))

	for _, phase := range phases {
		rp := renderedPhase{Banner: phaseBanner[phase]}

		if section := ir.Section(phase); section != nil {
			for _, cmd := range section.Commands {
				line, warning := renderCommand(phase, cmd)
				if warning != "" {
					*warnings = append(*warnings, warning)
					continue
				}
				rp.Lines = append(rp.Lines, line)
			}
		}

		rendered = append(rendered, rp)
	}

	return rendered
}

// sortedVariables возвращает переменные в отсортированном по имени порядке.
func sortedVariables(vars map[string]string) []variable {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]variable, 0, len(names))
	for _, name := range names {
		out = append(out, variable{Name: name, Value: quote(vars[name])})
	}
	return out
}

// scriptTemplate — фиксированный шаблон итогового скрипта.
var scriptTemplate = template.Must(template.New("deploy").Funcs(template.FuncMap{
	"indent": func(lines []string) string {
		if len(lines) == 0 {
			return "\t\t# (no commands)"
		}
		indented := make([]string, len(lines))
		for i, line := range lines {
			indented[i] = "\t\t" + line
		}
		return strings.Join(indented, "\n")
	},
}).Parse(scriptTemplateText))

const scriptTemplateText = `<#
.SYNOPSIS
	Deployment script for the packaged application.
.DESCRIPTION
	Drives install and uninstall lifecycles through the App Deployment Toolkit.
#>
[CmdletBinding()]
Param (
	[ValidateSet('Install','Uninstall')]
	[string]$DeploymentType = 'Install'
)

Try {
	##*===============================================
	##* VARIABLE DECLARATION
	##*===============================================
{{- range .Variables}}
	${{.Name}} = {{.Value}}
{{- end}}

	If ($DeploymentType -ieq 'Install') {
{{- range .Install}}
		##*=== {{.Banner}} ===*##
{{indent .Lines}}
{{- end}}
	}
	Else {
{{- range .Uninstall}}
		##*=== {{.Banner}} ===*##
{{indent .Lines}}
{{- end}}
	}

	Exit-Script -ExitCode 0
}
Catch {
	Write-Log -Message ("Deployment failed: " + $_.Exception.Message) -Severity 3
	Exit-Script -ExitCode 1
}
`
