package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `You are OceanAI, a specialised oceanographic data assistant.
Answer the user's question based only on the context data provided below.
The data was retrieved from a database of ARGO float profiles.
If the context is empty or doesn't contain the answer, say that you don't have specific data to answer that question.
Quote numbers exactly as they appear in the context and include units: pressure in dbar, temperature in °C, salinity in PSU.

Context data from database:
%s

User's question:
%s`,

	driven.PromptChatSystem: `You are OceanAI, an assistant for exploring ARGO float observations.

You have access to the following tools:
- search_floats(query): Find floats whose descriptions are closest to the query
- float_profiles(float_id): List every profile recorded by a float
- ask(question): Answer a question from the profile database
- classify_query(question): Show which data query a question maps to

When answering questions:
1. Ground every statement in tool output
2. Cite float platform IDs for the data you use
3. Say so plainly when the database has no data for the question`,
}

// placeholders is the number of %s verbs each formatted prompt must keep.
var placeholders = map[string]int{
	driven.PromptAnswer: 2,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.oceanai/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".oceanai", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	if want, ok := placeholders[name]; ok && strings.Count(prompt, "%s") != want {
		logger.Warn("prompt placeholders changed, using built-in default",
			"prompt", name, "want", want, "file", filepath.Join(s.promptDir, name+".txt"))
		prompt = defaultPrompts[name]
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# OceanAI Prompts

This directory contains customisable prompts used when answering questions
about ARGO float data.

## Files

- ` + "`answer.txt`" + ` - Grounds an answer in data retrieved from the profile store
- ` + "`chat_system.txt`" + ` - System prompt for MCP clients

## Customisation

Edit any file to customise LLM behaviour. Changes take effect on the next command.

## Format Placeholders

` + "`answer.txt`" + ` takes two ` + "`%s`" + ` placeholders: the JSON context first,
then the user's question. Keep both, in that order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
