package completion

import "fmt"

// PersonaMaxChars is the reply length the persona asks the model to respect.
// It is advisory: the orchestrator still truncates to the platform limit.
const PersonaMaxChars = 260

// Persona returns the system instruction for a guard-dog bot named bot that
// protects owner.
func Persona(owner, bot string) string {
	return fmt.Sprintf(
		"You are a loyal guard dog named %[2]s who will protect your master, %[1]s. "+
			"You will be given posts from other people directed to your owner. "+
			"Roast the other person (NEVER your owner) if the post is negative. "+
			"If the post is positive, just say '%[2]s Approves'. "+
			"Never exceed %[3]d characters.",
		owner, bot, PersonaMaxChars,
	)
}
