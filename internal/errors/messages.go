package errors

import "fmt"

// Common error messages for the issuelog CLI.
// These templates ensure consistent, actionable error messages.

// MissingRepo creates an error when no repository name could be determined.
// notes explain why detection from the local checkout failed.
func MissingRepo(notes ...string) *CLIError {
	return NewArgumentErrorWithUsage(
		"repository name is required",
		"issuelog --repo <name> [--owner <owner>] --since <time>",
		append([]string{
			"Pass --repo, set 'repo' in .issuelog/config.yml, or export ISSUELOG_REPO",
			"Or run inside a git checkout whose origin points at the repository",
		}, notes...)...,
	)
}

// MissingOwner creates an error when neither owner nor username is known.
func MissingOwner(notes ...string) *CLIError {
	return NewArgumentErrorWithUsage(
		"repository owner is required",
		"issuelog --owner <owner> --repo <name> --since <time>",
		append([]string{
			"Pass --owner, or --username when you own the repository",
			"Or run inside a git checkout whose origin points at the repository",
		}, notes...)...,
	)
}

// MissingCutoff creates an error when neither since nor a reference file is given.
func MissingCutoff() *CLIError {
	return NewArgumentError(
		"either --since or --file is required",
		"Pass --since with a date (2024-01-31) or timestamp (2024-01-31T12:00:00Z)",
		"Or pass --file with an existing changelog; its modification time becomes the cutoff",
	)
}

// InvalidSince creates an error for an unparseable since value.
func InvalidSince(value string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid --since value: %q", value),
		"Use RFC 3339 (2024-01-31T12:00:00Z) or a plain date (2024-01-31)",
	)
}

// CutoffFileNotFound creates an error when the reference output file is absent.
func CutoffFileNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("changelog file not found: %s", path),
		"Create the file first (an empty file works): touch "+path,
		"Or pass --since to set the cutoff explicitly",
	)
}

// TemplateNotFound creates an error for a missing template file.
func TemplateNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("template file not found: %s", path),
		"Check the --template path",
		"Omit --template to use the bundled template",
	)
}

// PasswordWithoutUsername creates an error for a password given alone.
func PasswordWithoutUsername() *CLIError {
	return InvalidFlagCombination("--password without --username",
		"Basic authentication needs both --username and --password")
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"failed to load configuration",
		"Check .issuelog/config.yml and ~/.config/issuelog/config.yml for YAML errors",
		"List valid keys with: issuelog config keys",
		"Reset the project file with: issuelog config init --force",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'issuelog --help' to see valid options",
	)
}

// Unauthorized creates an error when the remote rejected the credentials.
func Unauthorized(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"authentication failed",
		"Check the token in GITHUB_TOKEN, ISSUELOG_TOKEN or --token",
		"Private repositories need a token with the repo scope",
	)
}

// RateLimited creates an error when the remote throttled the run.
func RateLimited(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"API rate limit exceeded",
		"Authenticate with a token to raise the limit",
		"Use --cache so later runs fetch only new events",
		"Retry after the limit resets",
	)
}

// RepositoryNotFound creates an error when the repository does not exist or is hidden.
func RepositoryNotFound(owner, repo string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("repository %s/%s not found", owner, repo),
		"Check --owner and --repo",
		"Private repositories need credentials",
	)
}

// FetchFailed creates an error for other transport failures.
func FetchFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"fetching from the remote failed",
		"Check your network connection",
		"Set --base-url when using GitHub Enterprise",
	)
}

// FileNotWritable creates an error when the output cannot be written.
func FileNotWritable(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}
