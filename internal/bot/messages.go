package bot

// Static bot copy. Literals are pre-escaped for MarkdownV2; dynamic values
// are escaped at the call site with render.EscapeMarkdownV2.

// menuButtonText is the label of the persistent reply-keyboard button.
// Incoming messages with exactly this text open the main menu.
const menuButtonText = "MENU"

const welcomeMessage = `
🔬 *Welcome to the arXiv Notifier Bot\!*

I help you stay updated with the latest research papers on arXiv\.
Click the *MENU* button below to get started\.
`

const mainMenuMessage = "*Main Menu*\n\nHow can I help you\\?"

const helpMessage = `
📚 *How to use this bot:*

*Keyword Subscriptions:*
Subscribe to any topic using keywords: ` + "`/subscribe machine learning`" + `

*Category Subscriptions:*
Subscribe to official arXiv categories: ` + "`/subscribe cs\\.AI`" + `

*Popular Categories:*
• ` + "`cs.AI`" + ` \- Artificial Intelligence
• ` + "`cs.LG`" + ` \- Machine Learning
• ` + "`cond-mat`" + ` \- Condensed Matter
• ` + "`econ.EM`" + ` \- Econometrics
• ` + "`stat.ML`" + ` \- Statistics \- Machine Learning

Use ` + "`/categories`" + ` to see all popular categories\.
Use ` + "`/test <topic>`" + ` to preview what papers you'd get\.

*Tips:*
• You can subscribe to multiple topics
• Mix keywords and categories
• Check ` + "`/mysubscriptions`" + ` to manage your subscriptions
`

const subscribeUsageMessage = "Please provide a topic to subscribe to\\.\n\n" +
	"Examples:\n" +
	"• `/subscribe machine learning`\n" +
	"• `/subscribe cs\\.AI`\n" +
	"• `/subscribe natural language processing`"

const unsubscribeUsageMessage = "Please provide a topic to unsubscribe from\\."

const testUsageMessage = "Please provide a topic to test\\.\nExample: `/test machine learning`"

const noSubscriptionsMessage = "You have no active subscriptions\\."

const categoriesPromptMessage = "📋 *Click a category to subscribe or unsubscribe:*"

const unknownCommandMessage = "I don't know that command\\. Try /help\\."

const searchErrorMessage = "Sorry, there was an error searching for papers\\. Please try again later\\."
