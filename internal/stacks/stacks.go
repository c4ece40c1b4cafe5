// Package stacks holds the static tech-stack catalog: the fixed set of
// technologies a user can tag their profile and links with, each with a display
// label and a badge colour.
//
// The catalog is compiled in and read-only. Lookups are pure and total:
// Resolve never fails, it synthesizes a fallback entry for unknown values.
package stacks

import (
	"fmt"
	"net/url"
	"strings"
)

// Entry is one catalog row. Value is the canonical identifier (also the
// simple-icons / shields.io logo slug), Label the display name, Color a hex
// colour without the leading '#'.
type Entry struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// FallbackColor marks entries synthesized for values outside the catalog.
const FallbackColor = "gray"

// badgeInactiveColor is what shields.io receives in place of the gray
// fallback; it renders a neutral badge for custom stacks.
const badgeInactiveColor = "inactive"

// Resolve returns the catalog entry for value, or a synthesized fallback entry
// echoing the value as both identifier and label.
func Resolve(value string) Entry {
	if e, ok := index[value]; ok {
		return e
	}
	return Entry{Value: value, Label: value, Color: FallbackColor}
}

// Known reports whether value is a catalog entry (not a fallback).
func Known(value string) bool {
	_, ok := index[value]
	return ok
}

// BadgeURL formats the shields.io badge URL for an entry. Pure, no I/O.
// shields.io handles unknown logo slugs gracefully (the badge just has no logo),
// so fallback entries get a valid URL too.
func BadgeURL(e Entry) string {
	color := e.Color
	if color == FallbackColor {
		color = badgeInactiveColor
	}
	return fmt.Sprintf(
		"https://img.shields.io/badge/-%s-%s?style=flat-square&logo=%s&logoColor=white",
		escape(e.Label), color, escape(e.Value),
	)
}

// escape percent-encodes a badge URL component. QueryEscape encodes spaces as
// '+', which shields.io renders literally, so rewrite them to %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// StackForLanguage maps a GitHub repository's primary language to a catalog
// stack value. Returns ("", false) for an empty or unmapped language.
func StackForLanguage(language string) (string, bool) {
	if language == "" {
		return "", false
	}
	v, ok := languageStacks[language]
	return v, ok
}

// languageStacks is the fixed GitHub language → stack table used by the
// repository importer. Only primary languages are mapped; repository topics
// are deliberately not considered.
var languageStacks = map[string]string{
	"JavaScript": "javascript",
	"TypeScript": "typescript",
	"Python":     "python",
	"Java":       "java",
	"C++":        "cplusplus",
	"C#":         "csharp",
	"Go":         "go",
	"Rust":       "rust",
	"Swift":      "swift",
	"Kotlin":     "kotlin",
	"Dart":       "dart",
	"PHP":        "php",
	"Ruby":       "ruby",
	"Scala":      "scala",
	"HTML":       "html5",
	"CSS":        "css3",
	"Vue":        "vue.js",
	"Shell":      "linux",
	"Dockerfile": "docker",
}

var index = buildIndex()

func buildIndex() map[string]Entry {
	m := make(map[string]Entry, len(Catalog))
	for _, e := range Catalog {
		m[e.Value] = e
	}
	return m
}

// Catalog is the complete stack list, grouped roughly by category.
var Catalog = []Entry{
	// Languages
	{Value: "javascript", Label: "JavaScript", Color: "F7DF1E"},
	{Value: "typescript", Label: "TypeScript", Color: "3178C6"},
	{Value: "python", Label: "Python", Color: "3776AB"},
	{Value: "java", Label: "Java", Color: "007396"},
	{Value: "cplusplus", Label: "C++", Color: "00599C"},
	{Value: "csharp", Label: "C#", Color: "239120"},
	{Value: "go", Label: "Go", Color: "00ADD8"},
	{Value: "rust", Label: "Rust", Color: "000000"},
	{Value: "swift", Label: "Swift", Color: "F05138"},
	{Value: "kotlin", Label: "Kotlin", Color: "7F52FF"},
	{Value: "dart", Label: "Dart", Color: "0175C2"},
	{Value: "php", Label: "PHP", Color: "777BB4"},
	{Value: "ruby", Label: "Ruby", Color: "CC342D"},
	{Value: "r", Label: "R", Color: "276DC3"},
	{Value: "lua", Label: "Lua", Color: "2C2D72"},
	{Value: "scala", Label: "Scala", Color: "DC322F"},
	{Value: "html5", Label: "HTML5", Color: "E34F26"},
	{Value: "css3", Label: "CSS3", Color: "1572B6"},

	// Frontend
	{Value: "react", Label: "React", Color: "61DAFB"},
	{Value: "vue.js", Label: "Vue.js", Color: "4FC08D"},
	{Value: "angular", Label: "Angular", Color: "DD0031"},
	{Value: "svelte", Label: "Svelte", Color: "FF3E00"},
	{Value: "next.js", Label: "Next.js", Color: "000000"},
	{Value: "nuxt.js", Label: "Nuxt.js", Color: "00C58E"},
	{Value: "remix", Label: "Remix", Color: "000000"},
	{Value: "gatsby", Label: "Gatsby", Color: "663399"},
	{Value: "astro", Label: "Astro", Color: "BC52EE"},
	{Value: "jquery", Label: "jQuery", Color: "0769AD"},
	{Value: "bootstrap", Label: "Bootstrap", Color: "7952B3"},
	{Value: "tailwindcss", Label: "Tailwind CSS", Color: "06B6D4"},
	{Value: "sass", Label: "Sass", Color: "CC6699"},
	{Value: "mui", Label: "Mui", Color: "007FFF"},
	{Value: "chakraui", Label: "Chakra UI", Color: "319795"},
	{Value: "antdesign", Label: "Ant Design", Color: "0170FE"},
	{Value: "redux", Label: "Redux", Color: "764ABC"},
	{Value: "webpack", Label: "Webpack", Color: "8DD6F9"},
	{Value: "vite", Label: "Vite", Color: "646CFF"},
	{Value: "babel", Label: "Babel", Color: "F9DC3E"},
	{Value: "framer", Label: "Framer", Color: "0055FF"},
	{Value: "three.js", Label: "Three.js", Color: "000000"},

	// Backend
	{Value: "node.js", Label: "Node.js", Color: "339933"},
	{Value: "express", Label: "Express", Color: "000000"},
	{Value: "nestjs", Label: "NestJS", Color: "E0234E"},
	{Value: "fastify", Label: "Fastify", Color: "000000"},
	{Value: "django", Label: "Django", Color: "092E20"},
	{Value: "flask", Label: "Flask", Color: "000000"},
	{Value: "fastapi", Label: "FastAPI", Color: "009688"},
	{Value: "springboot", Label: "Spring Boot", Color: "6DB33F"},
	{Value: "laravel", Label: "Laravel", Color: "FF2D20"},
	{Value: "rubyonrails", Label: "Ruby on Rails", Color: "CC0000"},
	{Value: "graphql", Label: "GraphQL", Color: "E10098"},
	{Value: "apollographql", Label: "Apollo", Color: "311C87"},
	{Value: "prisma", Label: "Prisma", Color: "2D3748"},
	{Value: "socket.io", Label: "Socket.io", Color: "010101"},

	// Mobile
	{Value: "reactnative", Label: "React Native", Color: "61DAFB"},
	{Value: "flutter", Label: "Flutter", Color: "02569B"},
	{Value: "android", Label: "Android", Color: "3DDC84"},
	{Value: "ios", Label: "iOS", Color: "000000"},
	{Value: "expo", Label: "Expo", Color: "000020"},
	{Value: "ionic", Label: "Ionic", Color: "3880FF"},
	{Value: "xamarin", Label: "Xamarin", Color: "3498DB"},

	// Database
	{Value: "postgresql", Label: "PostgreSQL", Color: "4169E1"},
	{Value: "mysql", Label: "MySQL", Color: "4479A1"},
	{Value: "mongodb", Label: "MongoDB", Color: "47A248"},
	{Value: "redis", Label: "Redis", Color: "DC382D"},
	{Value: "sqlite", Label: "SQLite", Color: "003B57"},
	{Value: "mariadb", Label: "MariaDB", Color: "003545"},
	{Value: "oracle", Label: "Oracle", Color: "F80000"},
	{Value: "firebase", Label: "Firebase", Color: "FFCA28"},
	{Value: "supabase", Label: "Supabase", Color: "3FCF8E"},
	{Value: "amazondynamodb", Label: "DynamoDB", Color: "4053D6"},
	{Value: "apachecassandra", Label: "Cassandra", Color: "1287B1"},
	{Value: "elasticsearch", Label: "Elasticsearch", Color: "005571"},

	// DevOps & Cloud
	{Value: "amazonwebservices", Label: "AWS", Color: "232F3E"},
	{Value: "googlecloud", Label: "Google Cloud", Color: "4285F4"},
	{Value: "microsoftazure", Label: "Azure", Color: "0078D4"},
	{Value: "docker", Label: "Docker", Color: "2496ED"},
	{Value: "kubernetes", Label: "Kubernetes", Color: "326CE5"},
	{Value: "nginx", Label: "Nginx", Color: "009639"},
	{Value: "apache", Label: "Apache", Color: "D22128"},
	{Value: "jenkins", Label: "Jenkins", Color: "D24939"},
	{Value: "gitlab", Label: "GitLab CI", Color: "FC6D26"},
	{Value: "circleci", Label: "CircleCI", Color: "343434"},
	{Value: "travisci", Label: "Travis CI", Color: "3EAAAF"},
	{Value: "terraform", Label: "Terraform", Color: "7B42BC"},
	{Value: "ansible", Label: "Ansible", Color: "EE0000"},
	{Value: "vercel", Label: "Vercel", Color: "000000"},
	{Value: "netlify", Label: "Netlify", Color: "00C7B7"},
	{Value: "heroku", Label: "Heroku", Color: "430098"},
	{Value: "digitalocean", Label: "DigitalOcean", Color: "0080FF"},

	// Tools & Others
	{Value: "git", Label: "Git", Color: "F05032"},
	{Value: "github", Label: "GitHub", Color: "181717"},
	{Value: "linux", Label: "Linux", Color: "FCC624"},
	{Value: "ubuntu", Label: "Ubuntu", Color: "E95420"},
	{Value: "figma", Label: "Figma", Color: "F24E1E"},
	{Value: "adobexd", Label: "Adobe XD", Color: "FF61F6"},
	{Value: "sketch", Label: "Sketch", Color: "F7B500"},
	{Value: "postman", Label: "Postman", Color: "FF6C37"},
	{Value: "jira", Label: "Jira", Color: "0052CC"},
	{Value: "trello", Label: "Trello", Color: "0052CC"},
	{Value: "slack", Label: "Slack", Color: "4A154B"},
	{Value: "discord", Label: "Discord", Color: "5865F2"},
	{Value: "notion", Label: "Notion", Color: "000000"},
	{Value: "unity", Label: "Unity", Color: "000000"},
	{Value: "unrealengine", Label: "Unreal Engine", Color: "313131"},
	{Value: "tensorflow", Label: "TensorFlow", Color: "FF6F00"},
	{Value: "pytorch", Label: "PyTorch", Color: "EE4C2C"},
	{Value: "openai", Label: "OpenAI", Color: "412991"},
}
