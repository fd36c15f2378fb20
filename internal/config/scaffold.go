package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const sampleConfig = `site:
  title: "My Site"
  description: "A brand new site"
  base_url: ""

paths:
  source: .
  layouts: _layouts
  static: assets
  output: _site

server:
  port: 4000
  live_reload: true
`

const defaultLayout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{ .Page.Title }} | {{ .Site.Title }}</title>
</head>
<body>
  <header><a href="/">{{ .Site.Title }}</a></header>
  <main>{{ .Content }}</main>
</body>
</html>
`

const postLayout = `---
layout: default
---
<article>
  <h1>{{ .Page.Title }}</h1>
  <time datetime="{{ dateFormat "2006-01-02" .Page.Date }}">{{ dateFormat "January 2, 2006" .Page.Date }}</time>
  {{ .Content }}
</article>
`

const samplePostBody = `---
layout: post
title: "Welcome"
---

This is your first post. Edit or delete it, then start writing.
`

const sampleIndex = `---
layout: default
title: "Home"
---

# Welcome

This site was generated by sitebuilder.
`

// Scaffold writes a minimal working site into dir: a config file, default
// and post layouts, an index page and one sample post. Existing files are
// kept unless force is set.
func Scaffold(dir string, force bool) error {
	postName := fmt.Sprintf("%s-welcome.md", time.Now().Format("2006-01-02"))
	files := map[string]string{
		DefaultFileName: sampleConfig,
		filepath.Join("_layouts", "default.html"): defaultLayout,
		filepath.Join("_layouts", "post.html"):    postLayout,
		filepath.Join("_posts", postName):         samplePostBody,
		"index.md":                                sampleIndex,
	}
	for rel, body := range files {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return nil
}
