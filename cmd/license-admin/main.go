package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ca-backoffice/internal/license"
)

func main() {
	signingKey := os.Getenv("LICENSE_SIGNING_KEY")
	if signingKey == "" {
		fmt.Println("LICENSE_SIGNING_KEY environment variable is not set")
		os.Exit(1)
	}

	codec := license.NewCodec(signingKey)
	issuer := license.NewIssuer(codec)
	verifier := license.NewVerifier(codec)

	fmt.Println("========================================")
	fmt.Println(" License Administration Tool")
	fmt.Println("========================================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nOptions:")
		fmt.Println("  1. Generate license token")
		fmt.Println("  2. Generate batch license tokens")
		fmt.Println("  3. Validate a license token")
		fmt.Println("  4. Extend a license token")
		fmt.Println("  5. Inspect token usage")
		fmt.Println("  6. Show license type info")
		fmt.Println("  7. Exit")
		fmt.Print("\nSelect option: ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			generateToken(reader, issuer)
		case "2":
			generateBatch(reader, issuer)
		case "3":
			validateToken(reader, verifier)
		case "4":
			extendToken(reader, issuer)
		case "5":
			inspectToken(reader, issuer)
		case "6":
			showLicenseInfo()
		case "7":
			fmt.Println("Goodbye!")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}
	}
}

func readLicenseType(reader *bufio.Reader) (license.Type, bool) {
	fmt.Println("License types:")
	fmt.Println("  1. Commercial   (12 months, 5 users)")
	fmt.Println("  2. Subscription (1 month, 5 users)")
	fmt.Println("  3. Lifetime     (99 years, 5 users, all features)")
	fmt.Println("  4. Enterprise   (12 months, 50 users)")
	fmt.Print("Select type (1-4): ")

	input, _ := reader.ReadString('\n')
	switch strings.TrimSpace(input) {
	case "1":
		return license.TypeCommercial, true
	case "2":
		return license.TypeSubscription, true
	case "3":
		return license.TypeLifetime, true
	case "4":
		return license.TypeEnterprise, true
	}
	fmt.Println("Invalid type")
	return "", false
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func generateToken(reader *bufio.Reader, issuer *license.Issuer) {
	fmt.Println("\n--- Generate License Token ---")

	kind, ok := readLicenseType(reader)
	if !ok {
		return
	}

	company := prompt(reader, "Company name: ")
	email := prompt(reader, "Contact email: ")
	if company == "" || email == "" {
		fmt.Println("Company and email are required")
		return
	}

	params := license.IssueParams{
		Kind:    kind,
		Company: company,
		Email:   email,
	}

	if months := prompt(reader, "Duration in months (blank for default): "); months != "" {
		if parsed, err := strconv.Atoi(months); err == nil && parsed > 0 {
			params.DurationMonths = parsed
		}
	}
	if users := prompt(reader, "Max users (blank for default): "); users != "" {
		if parsed, err := strconv.Atoi(users); err == nil && parsed > 0 {
			params.MaxUsers = parsed
		}
	}

	token, err := issuer.Issue(params)
	if err != nil {
		fmt.Printf("Failed to generate token: %v\n", err)
		return
	}

	fmt.Println("\n========================================")
	fmt.Printf("  License Type: %s\n", kind)
	fmt.Printf("  Company:      %s\n", company)
	fmt.Printf("  Token:        %s\n", token)
	fmt.Printf("  Generated:    %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println("========================================")

	fmt.Print("\nSave to file? (y/n): ")
	save, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(save)) == "y" {
		filename := fmt.Sprintf("license_%s_%s.txt", kind, time.Now().Format("20060102_150405"))
		content := fmt.Sprintf("License Type: %s\nCompany: %s\nToken: %s\nGenerated: %s\n",
			kind, company, token, time.Now().Format("2006-01-02 15:04:05"))
		os.WriteFile(filename, []byte(content), 0644)
		fmt.Printf("Saved to: %s\n", filename)
	}
}

func generateBatch(reader *bufio.Reader, issuer *license.Issuer) {
	fmt.Println("\n--- Generate Batch License Tokens ---")

	kind, ok := readLicenseType(reader)
	if !ok {
		return
	}

	company := prompt(reader, "Company name prefix: ")
	email := prompt(reader, "Contact email: ")
	if company == "" || email == "" {
		fmt.Println("Company and email are required")
		return
	}

	count, err := strconv.Atoi(prompt(reader, "How many tokens to generate? "))
	if err != nil || count < 1 || count > 100 {
		fmt.Println("Invalid count (1-100)")
		return
	}

	fmt.Printf("\nGenerating %d %s license tokens...\n", count, kind)
	fmt.Println("========================================")

	tokens := make([]string, 0, count)
	for i := 0; i < count; i++ {
		token, err := issuer.Issue(license.IssueParams{
			Kind:    kind,
			Company: fmt.Sprintf("%s-%d", company, i+1),
			Email:   email,
		})
		if err != nil {
			fmt.Printf("Failed at token %d: %v\n", i+1, err)
			return
		}
		tokens = append(tokens, token)
		fmt.Printf("  %d. %s\n", i+1, token)
	}
	fmt.Println("========================================")

	filename := fmt.Sprintf("licenses_%s_%s.txt", kind, time.Now().Format("20060102_150405"))
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s License Tokens\n", kind))
	content.WriteString(fmt.Sprintf("# Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	content.WriteString(fmt.Sprintf("# Count: %d\n\n", count))
	for i, token := range tokens {
		content.WriteString(fmt.Sprintf("%d. %s\n", i+1, token))
	}
	os.WriteFile(filename, []byte(content.String()), 0644)
	fmt.Printf("\nSaved to: %s\n", filename)
}

func validateToken(reader *bufio.Reader, verifier *license.Verifier) {
	fmt.Println("\n--- Validate License Token ---")

	token := prompt(reader, "Enter license token: ")
	res := verifier.Verify(token)

	fmt.Println("\n========================================")
	if !res.Valid {
		fmt.Printf("  Status:  INVALID\n")
		fmt.Printf("  Reason:  %s\n", res.Reason)
		if res.DaysExpired > 0 {
			fmt.Printf("  Expired: %d days ago\n", res.DaysExpired)
		}
	} else {
		fmt.Printf("  Status:    VALID\n")
		fmt.Printf("  Company:   %s\n", res.Claims.Company)
		fmt.Printf("  Type:      %s\n", res.Claims.Type)
		fmt.Printf("  Max users: %d\n", res.Claims.MaxUsers)
		fmt.Printf("  Expires:   %s (%d days remaining)\n",
			res.Claims.ExpiryTime().Format("2006-01-02"), res.DaysRemaining)
		if res.ExpiringSoon {
			fmt.Println("  Warning:   expiring within 30 days")
		}
		fmt.Println("  Features:")
		for feature, enabled := range res.Claims.Features {
			if enabled {
				fmt.Printf("    - %s\n", feature)
			}
		}
	}
	fmt.Println("========================================")
}

func extendToken(reader *bufio.Reader, issuer *license.Issuer) {
	fmt.Println("\n--- Extend License Token ---")

	token := prompt(reader, "Enter license token: ")
	days, err := strconv.Atoi(prompt(reader, "Additional days: "))
	if err != nil || days < 1 {
		fmt.Println("Invalid day count")
		return
	}

	ext, err := issuer.Extend(token, days)
	if err != nil {
		fmt.Printf("Failed to extend: %v\n", err)
		return
	}

	fmt.Println("\n========================================")
	fmt.Printf("  Old expiry: %s\n", ext.OldExpiry.Format("2006-01-02"))
	fmt.Printf("  New expiry: %s\n", ext.NewExpiry.Format("2006-01-02"))
	fmt.Printf("  New token:  %s\n", ext.Token)
	fmt.Println("========================================")
}

func inspectToken(reader *bufio.Reader, issuer *license.Issuer) {
	fmt.Println("\n--- Inspect Token Usage ---")

	token := prompt(reader, "Enter license token: ")
	info := issuer.Info(token)
	if info == nil {
		fmt.Println("Token could not be decoded")
		return
	}

	fmt.Println("\n========================================")
	fmt.Printf("  Company:        %s\n", info.Company)
	fmt.Printf("  Type:           %s\n", info.Type)
	fmt.Printf("  Total days:     %d\n", info.Stats.TotalDays)
	fmt.Printf("  Days used:      %d\n", info.Stats.DaysUsed)
	fmt.Printf("  Days remaining: %d\n", info.Stats.DaysRemaining)
	fmt.Printf("  Usage:          %.1f%%\n", info.Stats.PercentageUsed)
	if info.Stats.IsExpired {
		fmt.Println("  Status:         EXPIRED")
	} else if info.Stats.IsExpiringSoon {
		fmt.Println("  Status:         EXPIRING SOON")
	} else {
		fmt.Println("  Status:         ACTIVE")
	}
	fmt.Println("========================================")
}

func showLicenseInfo() {
	fmt.Println("\n========================================")
	fmt.Println(" License Types Overview")
	fmt.Println("========================================")

	types := []struct {
		Type     license.Type
		Term     string
		MaxUsers int
		Features []string
	}{
		{
			Type:     license.TypeCommercial,
			Term:     "12 months",
			MaxUsers: 5,
			Features: []string{
				license.FeatureAdvancedReports,
				license.FeatureAPIAccess,
				license.FeatureCustomBranding,
				license.FeaturePrioritySupport,
			},
		},
		{
			Type:     license.TypeSubscription,
			Term:     "1 month",
			MaxUsers: 5,
			Features: []string{
				license.FeatureAdvancedReports,
				license.FeatureAPIAccess,
				license.FeatureCustomBranding,
				license.FeaturePrioritySupport,
			},
		},
		{
			Type:     license.TypeLifetime,
			Term:     "99 years",
			MaxUsers: 5,
			Features: []string{"all features"},
		},
		{
			Type:     license.TypeEnterprise,
			Term:     "12 months",
			MaxUsers: 50,
			Features: []string{"all features"},
		},
	}

	for _, t := range types {
		fmt.Printf("\n%s (%s, max %d users)\n", strings.ToUpper(string(t.Type)), t.Term, t.MaxUsers)
		fmt.Println("  Features:")
		for _, f := range t.Features {
			fmt.Printf("    - %s\n", f)
		}
	}
	fmt.Println()
}
