package verifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amcodin/SmartScraper/internal/fetch"
	"github.com/amcodin/SmartScraper/internal/models"
	"github.com/amcodin/SmartScraper/internal/validator"
)

const systemPrompt = "You extract NBN internet plan details from provider web pages. Only report a plan whose download speed exactly matches the target. Never take a price from a different plan. Respond only with JSON."

const maxPromptContent = 20000

// buildPrompt renders the extraction prompt. With a nil page the model is
// asked to visit the URL itself.
func buildPrompt(plan models.Plan, page *fetch.Page, schema validator.Schema) string {
	speed := strconv.FormatFloat(plan.DownloadSpeed, 'f', -1, 64)

	var b strings.Builder
	b.WriteString("## Task: Extract NBN Internet Plan Details (JSON Output)\n\n")
	if page == nil {
		b.WriteString("Visit the website and extract the details of the NBN internet plan that matches the target download speed. ")
	} else {
		b.WriteString("Using the website content below, extract the details of the NBN internet plan that matches the target download speed. ")
	}
	b.WriteString("The latest price shown for the *same plan* with the matching speed is required.\n\n")
	fmt.Fprintf(&b, "**Website:** %s\n\n", plan.URL)
	if plan.PlanName != "" {
		fmt.Fprintf(&b, "**Plan Name (as last recorded):** %s\n\n", plan.PlanName)
	}
	fmt.Fprintf(&b, "**Target Download Speed:** %s Mbps\n\n", speed)

	b.WriteString("**Instructions:**\n\n")
	b.WriteString("1. Find a *complete* plan whose download speed is **exactly** " + speed + " Mbps.\n")
	b.WriteString("2. Take every value (price, plan name, speeds, promotion, details) from that plan's own container. Do not extract the price from a neighbouring plan.\n")
	b.WriteString("3. Report values precisely as presented on the website. If no promotion is mentioned, return null for promotion_details.\n\n")

	b.WriteString("**Search Strategy (Prioritized):**\n\n")
	b.WriteString("1. Tables, especially `<table class=\"table\">`.\n")
	b.WriteString("2. Carousels: `div.swiper` and their `div.swiper-slide` children.\n")
	b.WriteString("3. Elements whose class names mention plans.\n\n")

	b.WriteString("**Output Format: JSON REQUIRED**\n\n")
	b.WriteString("Return the ENTIRE response as a single JSON object with exactly this structure:\n\n")
	b.WriteString(schema.Prompt())
	b.WriteString("\n")

	if page != nil {
		b.WriteString("\n**Website Content")
		if page.Strategy != "" {
			fmt.Fprintf(&b, " (%s)", page.Strategy)
		}
		b.WriteString(":**\n")
		if page.Title != "" {
			b.WriteString("Title: " + page.Title + "\n")
		}
		b.WriteString(truncateText(page.Text, maxPromptContent))
		b.WriteString("\n")
	}
	return b.String()
}

func truncateText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "... (truncated)"
}
