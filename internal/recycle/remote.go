package recycle

import (
	"strconv"
	"strings"
)

// COM automation is local-only, so remote targets run an equivalent shell
// namespace sweep inside PowerShell on the target machine. The script
// prints a single "Affected: N" line that target.ParseAffected extracts.

// RemoteScript builds the PowerShell Recycle Bin sweep for a remote
// target. In dry-run mode entries are counted but not removed.
func RemoteScript(retentionDays int, dryRun bool) string {
	var b strings.Builder
	b.WriteString("$shell = New-Object -ComObject Shell.Application\n")
	b.WriteString("$bin = $shell.Namespace(10)\n")
	b.WriteString("if ($bin -eq $null) { Write-Error 'cannot open recycle bin'; exit 1 }\n")
	b.WriteString("$cutoff = (Get-Date).AddDays(-" + strconv.Itoa(retentionDays) + ")\n")
	b.WriteString("$n = 0\n")
	b.WriteString("foreach ($item in @($bin.Items())) {\n")
	b.WriteString("  $raw = $bin.GetDetailsOf($item, 2) -replace '[\\u200E\\u200F\\u202A-\\u202E\\u2066-\\u2069]', ''\n")
	b.WriteString("  $when = $null\n")
	b.WriteString("  if (-not [DateTime]::TryParse($raw, [ref]$when)) { continue }\n")
	b.WriteString("  if ($when -gt $cutoff) { continue }\n")
	if dryRun {
		b.WriteString("  $n++\n")
	} else {
		b.WriteString("  Remove-Item -LiteralPath $item.Path -Recurse -Force -ErrorAction SilentlyContinue\n")
		b.WriteString("  if (-not (Test-Path -LiteralPath $item.Path)) { $n++ }\n")
	}
	b.WriteString("}\n")
	b.WriteString("Write-Output (\"Affected: \" + $n)\n")
	return b.String()
}
