package terraform

import (
	"fmt"
	"strings"
)

// Marker prefixes shared by the prompt contract and the parser.
const (
	startMarker = "START_FILE:"
	endMarker   = "END_FILE:"
)

var requiredFiles = []string{"main.tf", "variables.tf", "outputs.tf"}

var optionalFiles = map[Provider][]string{
	ProviderAWS:   {"providers.tf", "network.tf", "security.tf", "iam.tf"},
	ProviderGCP:   {"providers.tf", "network.tf", "security.tf", "iam.tf"},
	ProviderAzure: {"providers.tf", "network.tf", "security.tf", "resource_group.tf"},
}

var tagGuidance = map[Provider][]string{
	ProviderAWS: {
		"Prefer a default_tags block inside the aws provider configuration so every taggable resource inherits the tags.",
		"Merge resource-specific tags with the defaults where a resource needs extra tags.",
	},
	ProviderGCP: {
		"Apply them as labels on every resource that supports the labels argument.",
		"Label keys and values must be lowercase; normalize them if needed.",
	},
	ProviderAzure: {
		"Apply them to the resource group and to every individual resource that supports tags.",
		"Define them once in a local value and reference it from each resource.",
	},
}

var exampleRegion = map[Provider]string{
	ProviderAWS:   "us-west-2",
	ProviderGCP:   "us-central1",
	ProviderAzure: "westeurope",
}

// BuildPrompt renders the instruction sent alongside the diagram image.
// The output depends only on its arguments.
func BuildPrompt(provider Provider, tags []Tag) string {
	var b strings.Builder
	b.Grow(4096)

	b.WriteString("You are an expert AI assistant specialized in translating cloud architecture diagrams into Terraform code.\n")
	b.WriteString("Analyze the provided image, which depicts a cloud application architecture.\n")
	b.WriteString(fmt.Sprintf("Your task is to generate the complete and functional Terraform code required to provision this architecture on the %s cloud platform, organized into separate, best-practice files.\n\n", provider))

	b.WriteString("Key requirements for the output:\n")
	b.WriteString(fmt.Sprintf("1. Provider: %s.\n", provider))
	b.WriteString(fmt.Sprintf("2. File Structure: Generate separate files for %s. If applicable and sensible based on the diagram, also generate %s.\n",
		quoteList(requiredFiles), quoteList(optionalFiles[provider])))
	b.WriteString("3. Format: For each file, provide pure Terraform HCL code.\n")
	b.WriteString("4. Demarcation: Clearly separate the content of each file using the following format ON SEPARATE LINES:\n")
	b.WriteString("   // " + startMarker + " filename.tf\n")
	b.WriteString("   [HCL code for this file]\n")
	b.WriteString("   // " + endMarker + " filename.tf\n")
	b.WriteString("   Ensure NO other text or explanation is outside these demarcated blocks. The entire output must consist of these file blocks. Each marker must be on its own line.\n")
	b.WriteString("5. Completeness: Include all necessary resources, configurations, and variables suggested by the diagram in the appropriate files. If details are ambiguous, make reasonable assumptions typical for such architectures. Define variables in 'variables.tf' and use them in 'main.tf'. Define outputs in 'outputs.tf'.\n")
	b.WriteString(fmt.Sprintf("6. Best Practices: Adhere to %s and Terraform best practices for code organization and content within each file.\n", provider))

	if len(tags) > 0 {
		writeTags(&b, provider, tags)
	}

	b.WriteString("7. Output ONLY the demarcated Terraform HCL code blocks as specified. Do not include any surrounding text, markdown formatting (like ```hcl ... ```), or comments unless they are standard Terraform comments within the code itself.\n\n")

	b.WriteString("Example for 'variables.tf':\n")
	b.WriteString("// " + startMarker + " variables.tf\n")
	b.WriteString("variable \"region\" {\n")
	b.WriteString(fmt.Sprintf("  description = \"The %s region to deploy resources.\"\n", provider))
	b.WriteString("  type        = string\n")
	b.WriteString(fmt.Sprintf("  default     = %q\n", exampleRegion[provider]))
	b.WriteString("}\n")
	b.WriteString("// " + endMarker + " variables.tf\n\n")

	b.WriteString(fmt.Sprintf("If the diagram is too generic or lacks detail for a specific %s resource, provide a foundational Terraform structure (e.g., provider block in 'providers.tf' or 'main.tf', basic network setup in 'main.tf' if implied) and use placeholder comments for resources that would require more specific information from the diagram.\n", provider))
	b.WriteString("Focus on creating valid, usable, and well-organized Terraform code as the primary output.")

	return b.String()
}

func writeTags(b *strings.Builder, provider Provider, tags []Tag) {
	noun := provider.TagNoun()

	b.WriteString(fmt.Sprintf("\nAdditionally, apply the following %s to the resources:\n", noun))
	for _, t := range tags {
		b.WriteString(fmt.Sprintf("- %s: %s\n", t.Key, t.Value))
	}
	b.WriteString(fmt.Sprintf("\nFor %s, ensure these %s are applied to relevant resources (e.g., instances, networks, storage, resource groups) according to %s best practices.\n", provider, noun, provider))
	for _, line := range tagGuidance[provider] {
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("\n")
}

func quoteList(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, "'"+n+"'")
	}

	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}
