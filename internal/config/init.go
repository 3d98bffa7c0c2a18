package config

// Example returns the configuration written by `postbuilder init`.
func Example(title string) *Config {
	cfg := Default()
	if title != "" {
		cfg.Site.Title = title
	}
	cfg.Site.Description = "Notes and essays."
	cfg.Site.BaseURL = "${POSTBUILDER_BASE_URL}"
	cfg.Templates.Index = "blog-index.html"
	cfg.Templates.Post = "blog-post.html"
	return cfg
}
