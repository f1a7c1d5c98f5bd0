package main

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/invoicit/registry"
)

func TestReindexFlags(t *testing.T) {
	flags := reindexFlags()

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		var batchFlag *cli.IntFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
				batchFlag = f
				break
			}
		}
		require.NotNil(t, batchFlag)
		assert.Equal(t, 100, batchFlag.Value)
	})

	t.Run("report-interval has default value of 100", func(t *testing.T) {
		var reportFlag *cli.IntFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "report-interval" {
				reportFlag = f
				break
			}
		}
		require.NotNil(t, reportFlag)
		assert.Equal(t, 100, reportFlag.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		var retriesFlag *cli.IntFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "max-retries" {
				retriesFlag = f
				break
			}
		}
		require.NotNil(t, retriesFlag)
		assert.Equal(t, 3, retriesFlag.Value)
	})

	t.Run("retry-delay has default value of 1s", func(t *testing.T) {
		var delayFlag *cli.DurationFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "retry-delay" {
				delayFlag = f
				break
			}
		}
		require.NotNil(t, delayFlag)
		assert.Equal(t, 1*time.Second, delayFlag.Value)
	})
}

func TestPacksFlags(t *testing.T) {
	flags := packsFlags()

	t.Run("manifest is optional with no default", func(t *testing.T) {
		var manifestFlag *cli.StringFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "manifest" {
				manifestFlag = f
				break
			}
		}
		require.NotNil(t, manifestFlag)
		assert.False(t, manifestFlag.Required)
		assert.Empty(t, manifestFlag.Value)
	})

	t.Run("registry is optional with no default", func(t *testing.T) {
		var registryFlag *cli.StringFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "registry" {
				registryFlag = f
				break
			}
		}
		require.NotNil(t, registryFlag)
		assert.False(t, registryFlag.Required)
		assert.Empty(t, registryFlag.Value)
	})

	t.Run("flags have no EnvVars", func(t *testing.T) {
		// Environment lookup goes through the config package, not the CLI.
		for _, flag := range flags {
			f, ok := flag.(*cli.StringFlag)
			require.True(t, ok)
			assert.Empty(t, f.EnvVars)
		}
	})
}

func TestOpenRegistry(t *testing.T) {
	t.Run("http URL picks the HTTP client", func(t *testing.T) {
		reg, err := openRegistry("http://packs.example.com/registry")
		require.NoError(t, err)
		assert.IsType(t, &registry.HTTPRegistry{}, reg)
	})

	t.Run("https URL picks the HTTP client", func(t *testing.T) {
		reg, err := openRegistry("https://packs.example.com/registry")
		require.NoError(t, err)
		assert.IsType(t, &registry.HTTPRegistry{}, reg)
	})

	t.Run("plain path picks the directory registry", func(t *testing.T) {
		reg, err := openRegistry("/var/lib/invoicit/registry")
		require.NoError(t, err)
		assert.IsType(t, &registry.DirectoryRegistry{}, reg)
	})

	t.Run("relative path picks the directory registry", func(t *testing.T) {
		reg, err := openRegistry("./registry")
		require.NoError(t, err)
		assert.IsType(t, &registry.DirectoryRegistry{}, reg)
	})

	t.Run("empty location returns error", func(t *testing.T) {
		_, err := openRegistry("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registry location is required")
	})
}

func TestLockfilePathFor(t *testing.T) {
	testCases := []struct {
		manifest string
		expected string
	}{
		{"requirements.txt", "requirements.lock"},
		{"./requirements.txt", "./requirements.lock"},
		{"/etc/invoicit/packs.req", "/etc/invoicit/packs.lock"},
		{"manifest", "manifest.lock"},
	}

	for _, tc := range testCases {
		t.Run(tc.manifest, func(t *testing.T) {
			assert.Equal(t, tc.expected, lockfilePathFor(tc.manifest))
		})
	}
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						// Verify the logger was set up correctly by checking the default logger
						// This is a bit indirect but slog doesn't expose the level directly
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("default log level is info", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				// Verify default is used when flag not specified
				level := c.String("log-level")
				assert.Equal(t, "info", level)
				return nil
			},
		}

		err := app.Run([]string{"test"})
		require.NoError(t, err)
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				level := c.String("log-level")
				assert.Equal(t, "debug", level)
				return nil
			},
		}

		err := app.Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}
