package tabula

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// silentLoggingProperties turn off the logging backends bundled with
// tabula-java. The --silent flag alone does not stop the jar's libraries
// from writing to stderr, so the levels are disabled at the JVM level too.
var silentLoggingProperties = []string{
	"-Dorg.slf4j.simpleLogger.defaultLogLevel=off",
	"-Dorg.apache.commons.logging.Log=org.apache.commons.logging.impl.NoOpLog",
}

// run invokes the jar with the marshaled options and an optional input path,
// returning its standard output decoded to UTF-8.
func (client *Client) run(
	ctx context.Context,
	opt Options,
	inputPath string,
) ([]byte, error) {
	if opt.Pages == "" {
		client.log.Warn("Pages not specified. Extracting from page 1 only.")
	}

	optionArgs, argsErr := opt.Args()
	if argsErr != nil {
		return nil, argsErr
	}

	args := client.buildJavaArgs(opt, optionArgs, inputPath)

	if client.config.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, client.config.Timeout)
		defer cancel()
	}

	stdout, stderr, execErr := client.executor.Run(ctx, client.config.JavaBin, args...)
	if execErr != nil {
		if errors.Is(execErr, exec.ErrNotFound) {
			return nil, ErrJavaNotFound
		}

		return nil, fmt.Errorf(
			"tabula-java execution failed: %w. Output: %s",
			execErr,
			client.decodeLossy(stderr),
		)
	}

	// The jar reports progress on stderr even on success.
	if len(stderr) > 0 {
		client.log.Warn("Got stderr: %s", client.decodeLossy(stderr))
	}

	return client.decodeOutput(stdout)
}

// buildJavaArgs assembles the full JVM argument list for one invocation.
func (client *Client) buildJavaArgs(
	opt Options,
	optionArgs []string,
	inputPath string,
) []string {
	javaArgs := make([]string, 0, len(client.config.JavaOptions)+len(optionArgs)+8)
	javaArgs = append(javaArgs, client.config.JavaOptions...)

	if opt.Silent {
		javaArgs = append(javaArgs, silentLoggingProperties...)
	}

	// Keep the JVM from stealing window focus on macOS.
	if runtime.GOOS == "darwin" && !containsProperty(javaArgs, "java.awt.headless") {
		javaArgs = append(javaArgs, "-Djava.awt.headless=true")
	}

	if isUTF8Name(client.config.Encoding) && !containsProperty(javaArgs, "file.encoding") {
		javaArgs = append(javaArgs, "-Dfile.encoding=UTF8")
	}

	javaArgs = append(javaArgs, "-jar", client.config.JarPath)
	javaArgs = append(javaArgs, optionArgs...)

	if inputPath != "" {
		javaArgs = append(javaArgs, inputPath)
	}

	return javaArgs
}

func containsProperty(args []string, property string) bool {
	for _, arg := range args {
		if strings.Contains(arg, property) {
			return true
		}
	}

	return false
}

func isUTF8Name(name string) bool {
	return strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8")
}

// decodeOutput converts jar output from the configured encoding to UTF-8.
func (client *Client) decodeOutput(raw []byte) ([]byte, error) {
	if isUTF8Name(client.config.Encoding) {
		return raw, nil
	}

	enc, lookupErr := ianaindex.IANA.Encoding(client.config.Encoding)
	if lookupErr != nil {
		return nil, fmt.Errorf(
			"%w: %q: %w",
			ErrUnsupportedEncoding,
			client.config.Encoding,
			lookupErr,
		)
	}

	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, client.config.Encoding)
	}

	decoded, decodeErr := enc.NewDecoder().Bytes(raw)
	if decodeErr != nil {
		return nil, fmt.Errorf(
			"failed to decode output as %q: %w",
			client.config.Encoding,
			decodeErr,
		)
	}

	return decoded, nil
}

// decodeLossy decodes diagnostics for log messages, falling back to the raw
// bytes when the configured encoding cannot be applied.
func (client *Client) decodeLossy(raw []byte) string {
	decoded, decodeErr := client.decodeOutput(raw)
	if decodeErr != nil {
		return string(raw)
	}

	return string(decoded)
}

// JavaVersion reports the combined output of `java -version`.
func (client *Client) JavaVersion(ctx context.Context) (string, error) {
	out, execErr := client.executor.RunCombined(ctx, client.config.JavaBin, "-version")
	if execErr != nil {
		if errors.Is(execErr, exec.ErrNotFound) {
			return "", ErrJavaNotFound
		}

		return "", fmt.Errorf(
			"java -version failed: %w. Output: %s",
			execErr,
			string(out),
		)
	}

	return string(out), nil
}

// EnvironmentInfo collects wrapper, runtime and Java details for bug reports.
func (client *Client) EnvironmentInfo(ctx context.Context) string {
	javaVersion, javaErr := client.JavaVersion(ctx)
	if javaErr != nil {
		javaVersion = javaErr.Error()
	}

	return fmt.Sprintf(
		"tabula-client version: %s\nGo version: %s\nplatform: %s/%s\njar path: %s\nJava version:\n    %s",
		Version,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
		client.config.JarPath,
		strings.TrimSpace(javaVersion),
	)
}
