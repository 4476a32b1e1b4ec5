package serverselect

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/wanderlust-dev/wanderlust/internal/cli/config"
	"github.com/wanderlust-dev/wanderlust/internal/cli/userconfig"
)

// ResolveServer determines which server to use based on the following priority:
// 1. If serverAlias flag is provided, use that server
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	if serverAlias != "" {
		return projectConfig.GetServerByAlias(serverAlias)
	}

	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURL(selectedURL)
		if err == nil {
			return server, nil
		}
		// Selected server no longer exists in project config
		_ = userconfig.ForgetServer(selectedURL)
	}

	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		rememberSelection(server)
		return server, nil
	}

	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}

	rememberSelection(server)
	return server, nil
}

// rememberSelection saves the choice; a failure only costs a prompt next time
func rememberSelection(server *config.Server) {
	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save selected server: %v\n", err)
	}
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}
	recent, _ := userconfig.RecentServers()
	sortByRecent(options, recent, func(o serverOption) string { return o.Server.URL })

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	search := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(options[index].Label), strings.ToLower(strings.TrimSpace(input)))
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  search,
		Stdout:    os.Stderr,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}

// sortByRecent moves recently used entries to the front, most recent first.
// Entries never used keep their project file order.
func sortByRecent[T any](items []T, recent []string, url func(T) string) {
	rank := make(map[string]int, len(recent))
	for i, u := range recent {
		rank[u] = i
	}
	position := func(item T) int {
		if r, ok := rank[url(item)]; ok {
			return r
		}
		return len(recent)
	}
	slices.SortStableFunc(items, func(a, b T) int { return position(a) - position(b) })
}

// GetServerByURLOrAlias finds a server by URL or alias
func GetServerByURLOrAlias(cfg *config.Config, urlOrAlias string) (*config.Server, error) {
	if server, err := cfg.GetServerByURL(urlOrAlias); err == nil {
		return server, nil
	}
	if server, err := cfg.GetServerByAlias(urlOrAlias); err == nil {
		return server, nil
	}
	return nil, fmt.Errorf("server with URL or alias '%s' not found", urlOrAlias)
}
