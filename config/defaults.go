package config

// DefaultGroup returns the art direction pair: a copywriter proposes
// slogans and only the art director may approve them.
func DefaultGroup() *Group {
	return &Group{
		Name:          "art-direction",
		Participants:  []string{"ArtDirector", "CopyWriter"},
		Terminators:   []string{"ArtDirector"},
		MaxIterations: 10,
		Selection:     SelectRoundRobin,
		Termination:   TerminationSpec{Predicate: PredicateContains, Token: "approve"},
		Agents: []AgentSpec{
			{
				ID:          "ArtDirector",
				Description: "Reviews copy and decides whether it is ready to print",
				Instructions: `You are an art director who has opinions about copywriting born of a love for David Ogilvy.
The goal is to determine if the given copy is acceptable to print.
If so, state that it is approved.
If not, provide insight on how to refine suggested copy without example.`,
			},
			{
				ID:          "CopyWriter",
				Description: "Proposes and refines copy",
				Instructions: `You are a copywriter with ten years of experience and are known for brevity and a dry humor.
The goal is to refine and decide on the single best copy as an expert in the field.
Only provide a single proposal per response.
You're laser focused on the goal at hand.
Don't waste time with chit chat.
Consider suggestions when refining an idea.`,
			},
		},
	}
}

// GitHubGroup returns the coder team: an orchestrator agent delegating to
// three specialists, each restricted to its slice of the GitHub tools.
func GitHubGroup() *Group {
	return &Group{
		Name:          "github-team",
		Participants:  []string{"GitHubOrchestrator"},
		MaxIterations: 20,
		TurnsPerInput: 1,
		Agents: []AgentSpec{
			{
				ID:            "IssueReaderAgent",
				Description:   "Agent to invoke for reading and listing GitHub issues",
				CapabilitySet: "GitHub_IssueReader",
				Tools:         []string{"get_issue", "list_issues"},
				Instructions: "You are an agent that reads and lists GitHub issues. Use the provided tools to get information about issues. " +
					"Always provide clear, structured information about the issues you find.",
			},
			{
				ID:            "CodeWriterAgent",
				Description:   "Agent to invoke for reading files, creating branches, and managing code in GitHub repositories",
				CapabilitySet: "GitHub_CodeWriter",
				Tools:         []string{"get_file_contents", "create_branch", "create_or_update_file", "list_branches"},
				Instructions: "You are an agent that reads files, creates branches, and creates or updates files in a GitHub repository. " +
					"When creating new code, start by creating a new branch, then read the most relevant files. " +
					"Finally, create or update files in the repository.",
			},
			{
				ID:            "PullRequestAgent",
				Description:   "Agent to invoke for creating and reviewing pull requests",
				CapabilitySet: "GitHub_PullRequest",
				Tools:         []string{"create_pull_request", "create_pull_request_review"},
				Instructions:  "You are an agent that creates pull requests and reviews them. Use the provided tools to manage pull requests and provide thorough reviews.",
			},
			{
				ID:            "GitHubOrchestrator",
				Description:   "Coordinates the GitHub specialists",
				CapabilitySet: "GitHubAgentPlugin",
				Delegates:     []string{"IssueReaderAgent", "CodeWriterAgent", "PullRequestAgent"},
				Instructions: `You are a GitHub workflow orchestrator that coordinates between specialized agents to help users with GitHub-related tasks.
{{- with index .Vars "repo" }} You work on the repository {{ . }}.{{ end }}

Delegate tasks to the appropriate agents:
- Use IssueReaderAgent for reading and listing GitHub issues
- Use CodeWriterAgent for file operations, branch management, and code updates
- Use PullRequestAgent for creating and reviewing pull requests

For complex tasks, break them down into steps and use multiple agents in sequence.
If an agent fails, instruct it more precisely and retry.`,
			},
		},
	}
}

// LightsGroup returns a single home-automation agent driving the demo
// lights tools.
func LightsGroup() *Group {
	return &Group{
		Name:          "lights",
		MaxIterations: 20,
		TurnsPerInput: 1,
		Agents: []AgentSpec{
			{
				ID:            "LightsAgent",
				Description:   "Controls the stage lights",
				CapabilitySet: "Lights",
				Tools:         []string{"get_lights", "change_state", "change_color", "change_brightness", "change_blinking"},
				Instructions:  "You control the lights of a venue. Look up the current state before changing a light and report what you changed.",
			},
		},
	}
}
