/*
Package cli provides helpers shared by the booksapi commands.

Output Formatting:

Commands print their results as text, JSON or YAML:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Errors:

ConfigError and CommandError classify failures; ExitCode maps them to the
process exit status.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
