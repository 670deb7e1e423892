// Package config provides configuration loading, validation, environment
// variable merging, provider configuration, and file watching for the
// skill-engine runtime.
//
// Configuration is loaded with Viper from an optional YAML file and
// environment variables into the package-level [Cfg] value. The package
// also provides a file-watching mechanism for hot-reloading configuration
// at runtime.
//
// # Loading Configuration
//
// [LoadConfig] sets defaults for the LLM provider settings, searches for a
// YAML file named "config" in the current directory, /etc/skill-engine/,
// $HOME/.skill-engine and any extra paths given, and unmarshals the result
// into [Cfg]. A missing config file is not an error:
//
//	if err := config.LoadConfig(); err != nil {
//	    log.Fatal(err)
//	}
//	model := config.Cfg.LLMs.OpenAI.Model
//
// # Environment Variables
//
// Environment variables prefixed with BELUGA override values for keys
// Viper knows of (those with a default or present in the config file);
// dots in a key become underscores, so llms.openai.model is read from
// BELUGA_LLMS_OPENAI_MODEL.
//
// The package has no generic struct loader and no tag-driven defaults or
// validation (default, required, min and max tags are not read).
//
// # Provider Configuration
//
// [ProviderConfig] holds common configuration for any external provider
// (LLM, embedding, vector store, etc.), including provider name, API key,
// model identifier, base URL, timeout, and a flexible Options map for
// provider-specific settings. [GetOption] retrieves typed values from the
// Options map:
//
//	temp, ok := config.GetOption[float64](cfg, "temperature")
//
// # File Watching
//
// The [Watcher] interface abstracts configuration change detection.
// [FileWatcher] polls a file at regular intervals using SHA-256 content
// hashing, invoking a callback when changes are detected:
//
//	watcher := config.NewFileWatcher("config.json", 5*time.Second)
//	err := watcher.Watch(ctx, func(newConfig any) {
//	    data := newConfig.([]byte)
//	    // re-parse and apply configuration
//	})
package config
