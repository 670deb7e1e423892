package executor

import "fmt"

// nativeCommandTable maps a skill name to its base native program, for
// skills that don't name the program directly.
var nativeCommandTable = map[string]string{
	"kubernetes":      "kubectl",
	"aws":             "aws",
	"docker":          "docker",
	"terraform":       "terraform",
	"helm":            "helm",
	"git":             "git",
	"postgres-native": "psql",
}

// NativeAllowlist is the fixed, authoritative set of programs the native
// driver may spawn. There is no bypass.
var NativeAllowlist = map[string]bool{
	"kubectl":   true,
	"helm":      true,
	"git":       true,
	"curl":      true,
	"jq":        true,
	"aws":       true,
	"gcloud":    true,
	"az":        true,
	"docker":    true,
	"terraform": true,
	"psql":      true,
}

// baseCommand resolves a skill name to its native program.
func baseCommand(skillName string) string {
	if cmd, ok := nativeCommandTable[skillName]; ok {
		return cmd
	}
	return skillName
}

// ErrDisallowed reports that build_native_command resolved to a program
// outside NativeAllowlist.
type ErrDisallowed struct {
	Program string
}

func (e *ErrDisallowed) Error() string {
	return fmt.Sprintf("Disallowed: program %q is not allowed (allowed: %s)", e.Program, allowlistString())
}

func allowlistString() string {
	names := []string{"kubectl", "helm", "git", "curl", "jq", "aws", "gcloud", "az", "docker", "terraform", "psql"}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// BuildNativeCommand turns a skill/tool invocation plus parsed args into an
// argv for the native driver, per the executor's command-builder contract.
// It returns *ErrDisallowed if the resolved program is not in NativeAllowlist.
func BuildNativeCommand(skillName, toolName string, args []KV) ([]string, error) {
	program := baseCommand(skillName)
	if !NativeAllowlist[program] {
		return nil, &ErrDisallowed{Program: program}
	}

	argv := []string{program, toolName}
	for _, kv := range args {
		switch {
		case kv.Key == "arg" || kv.Key == "resource" || kv.Key == "":
			argv = append(argv, kv.Value)
		case kv.Value == "true":
			argv = append(argv, flagForm(kv.Key))
		case kv.Value == "false":
			// skip
		default:
			argv = append(argv, flagForm(kv.Key), kv.Value)
		}
	}
	return argv, nil
}

func flagForm(key string) string {
	if len(key) == 1 {
		return "-" + key
	}
	return "--" + key
}
