// Package logging provides the process-wide zap logger.
//
// Logging is silent unless a level is given with --log-level or the
// GOGOGATE_LOG_LEVEL environment variable, so CLI output stays clean:
//
//	if err := logging.Initialize(flagLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Logs go to stderr; stdout is reserved for command output.
//
// Passwords, keys and the encrypted data parameter are never logged. Use
// Redact when a value derived from them has to appear in a log line.
package logging
