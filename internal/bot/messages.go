package bot

import (
	"fmt"
	"strings"

	"diagram2terraform/internal/terraform"
	"diagram2terraform/internal/workflow"
)

const (
	msgStart = "Diagram to Terraform\n\n" +
		"Send me a picture of your cloud architecture diagram, pick a provider " +
		"and I will write the Terraform files for it.\n\n" + msgHelpBody

	msgHelp = "How it works\n\n" + msgHelpBody

	msgHelpBody = "1. Send the diagram as a photo or an image file. A caption like \"aws\" also selects the provider.\n" +
		"2. /provider aws|gcp|azure (or just /provider for buttons)\n" +
		"3. Optional: /tag key=value, /untag key, /tags\n" +
		"4. /generate\n\n" +
		"/reset clears the diagram, provider and tags."

	msgUseCommands    = "Send a diagram image or use /help to see the commands."
	msgUnknownCommand = "Unknown command. Use /help."
	msgReset          = "Everything cleared. Send a new diagram to start again."
	msgNotAnImage     = "That file is not an image. Please send the diagram as a photo or an image file."
	msgDownloadFailed = "Could not download the image from Telegram. Please send it again."
	msgChooseProvider = "Choose a cloud provider:"
	msgTagUsage       = "Usage: /tag key=value"
	msgUntagUsage     = "Usage: /untag key"
	msgAlbumNotice    = "You sent %d images. Only the last one is used as the diagram."
	msgGenerating     = "Generating Terraform code for %s…"
	msgEmptyResponse  = "The model returned an empty response. Try /generate again."
	msgNotYourMenu    = "This menu belongs to someone else."
)

func imageReceivedText(st workflow.State) string {
	var b strings.Builder
	b.WriteString("Diagram received")
	if st.ImageName != "" {
		fmt.Fprintf(&b, " (%s)", st.ImageName)
	}
	b.WriteString(".")

	if st.Provider == "" {
		b.WriteString(" Now choose a provider with /provider.")
		return b.String()
	}
	fmt.Fprintf(&b, " Provider: %s. Send /generate when ready.", st.Provider)
	return b.String()
}

func providerSelectedText(st workflow.State) string {
	info := terraform.Describe(st.Provider)
	text := fmt.Sprintf("Provider set to %s (%s).", st.Provider, info.Name)
	if !st.HasImage {
		return text + " Now send the diagram image."
	}
	return text + " Send /generate when ready."
}

func formatTags(st workflow.State) string {
	noun := "tags"
	if st.Provider != "" {
		noun = st.Provider.TagNoun()
	}

	if len(st.Tags) == 0 {
		return fmt.Sprintf("No %s yet. Add one with /tag key=value.", noun)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", capitalize(noun))
	for _, t := range st.Tags {
		fmt.Fprintf(&b, "- %s: %s\n", t.Key, t.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func resultCaption(st workflow.State) string {
	if len(st.Files) == 1 {
		return fmt.Sprintf("1 Terraform file for %s", st.Provider)
	}
	return fmt.Sprintf("%d Terraform files for %s", len(st.Files), st.Provider)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
