package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job is one named watchdog job: a stable id, the command lines to
// supervise, and the policy to supervise them under. The id keys the
// session registry so re-selecting a job re-attaches to live processes.
type Job struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Commands []string `yaml:"commands"`
	Watchdog Watchdog `yaml:"watchdog"`
}

// jobsFile is the on-disk shape of a job definitions file.
type jobsFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobs reads job definitions from a YAML file.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}
	return ParseJobs(data)
}

// ParseJobs decodes job definitions from YAML bytes.
func ParseJobs(data []byte) ([]Job, error) {
	var f jobsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}

	seen := make(map[string]bool, len(f.Jobs))
	for i, j := range f.Jobs {
		if j.ID == "" {
			return nil, fmt.Errorf("job %d: missing id", i)
		}
		if seen[j.ID] {
			return nil, fmt.Errorf("job %q: duplicate id", j.ID)
		}
		seen[j.ID] = true
		if len(j.Commands) == 0 {
			return nil, fmt.Errorf("job %q: requires non-empty commands", j.ID)
		}
	}
	return f.Jobs, nil
}

// FindJob returns the job with the given id.
func FindJob(jobs []Job, id string) (Job, error) {
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return Job{}, fmt.Errorf("job %q not found", id)
}
