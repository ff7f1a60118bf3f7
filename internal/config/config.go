package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Program describes one master's program the assistant knows about.
type Program struct {
	Key        string `yaml:"key"`
	Title      string `yaml:"title"`
	URL        string `yaml:"url"`
	PageText   string `yaml:"page_txt"`
	PlanText   string `yaml:"plan_txt"`
	PlanPDF    string `yaml:"plan_pdf"`
	PlanPDFURL string `yaml:"plan_pdf_url"`
}

type programsFile struct {
	Programs []Program `yaml:"programs"`
}

const (
	DefaultDataDir  = "data"
	DefaultPlansDir = "study_plans"
)

// DefaultPrograms returns the built-in program list with output paths rooted
// at dataDir and plansDir.
func DefaultPrograms(dataDir, plansDir string) []Program {
	return []Program{
		{
			Key:        "ai",
			Title:      "Искусственный интеллект",
			URL:        "https://abit.itmo.ru/program/master/ai",
			PageText:   filepath.Join(dataDir, "ai_page.txt"),
			PlanText:   filepath.Join(dataDir, "ai_plan.txt"),
			PlanPDF:    filepath.Join(plansDir, "10033-abit.pdf"),
			PlanPDFURL: "https://api.itmo.su/constructor-ep/api/v1/static/programs/10033/plan/abit/pdf",
		},
		{
			Key:        "ai_product",
			Title:      "Управление ИИ-продуктами/AI Product",
			URL:        "https://abit.itmo.ru/program/master/ai_product",
			PageText:   filepath.Join(dataDir, "ai_product_page.txt"),
			PlanText:   filepath.Join(dataDir, "ai_product_plan.txt"),
			PlanPDF:    filepath.Join(plansDir, "10130-abit.pdf"),
			PlanPDFURL: "https://api.itmo.su/constructor-ep/api/v1/static/programs/10130/plan/abit/pdf",
		},
	}
}

// LoadPrograms reads the program list from a YAML file. An empty path
// returns the defaults.
func LoadPrograms(path, dataDir, plansDir string) ([]Program, error) {
	if path == "" {
		return DefaultPrograms(dataDir, plansDir), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading programs file %s: %w", path, err)
	}

	var file programsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing programs file %s: %w", path, err)
	}

	if len(file.Programs) == 0 {
		return nil, fmt.Errorf("programs file %s does not define any programs", path)
	}

	seen := make(map[string]bool, len(file.Programs))
	for i := range file.Programs {
		p := &file.Programs[i]
		if p.Key == "" {
			return nil, fmt.Errorf("program #%d in %s is missing a key", i, path)
		}
		if seen[p.Key] {
			return nil, fmt.Errorf("duplicate program key '%s' in %s", p.Key, path)
		}
		seen[p.Key] = true

		if p.Title == "" {
			p.Title = p.Key
		}
		if p.PageText == "" {
			p.PageText = filepath.Join(dataDir, p.Key+"_page.txt")
		}
		if p.PlanText == "" {
			p.PlanText = filepath.Join(dataDir, p.Key+"_plan.txt")
		}
		if p.PlanPDF != "" && filepath.Dir(p.PlanPDF) == "." {
			p.PlanPDF = filepath.Join(plansDir, p.PlanPDF)
		}
	}

	log.Printf("loaded %d programs from %s", len(file.Programs), path)

	return file.Programs, nil
}
