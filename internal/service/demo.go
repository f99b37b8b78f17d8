package service

import "strings"

type demoRule struct {
	keywords []string
	reply    string
}

var demoRules = []demoRule{
	{[]string{"hello", "hi", "hey"}, "Hello! 👋 How can I assist you today? Feel free to ask me anything!"},
	{[]string{"how are you", "how do you feel"}, "I'm doing great, thanks for asking! I'm here and ready to help with whatever you need. What would you like to discuss?"},
	{[]string{"help", "can you"}, "Of course! I'd be happy to help. I can assist you with various tasks like answering questions, writing, coding, brainstorming, and much more. What do you need help with?"},
	{[]string{"python", "javascript", "code", "programming"}, "Great! I'm well-versed in programming. Whether you need help with Python, JavaScript, or other languages, I can assist with explanations, debugging, or writing code. What's your programming question?"},
	{[]string{"write", "essay", "story"}, "I'd love to help with your writing! Whether it's an essay, story, or creative piece, I can help you brainstorm, draft, or refine your ideas. What would you like to write about?"},
	{[]string{"joke", "funny", "laugh"}, "Why did the AI go to school? To improve its learning model! 😄 Got any other requests? I can help with humor or anything else you need."},
	{[]string{"thank", "thanks", "appreciate"}, "You're welcome! I'm happy to help. Don't hesitate to ask if you need anything else!"},
	{[]string{"what", "tell me about", "explain"}, "I'd be happy to explain that! I can provide information on almost any topic. Could you be more specific about what you'd like to know?"},
	{[]string{"bye", "goodbye"}, "Goodbye! It was great chatting with you. Feel free to come back anytime if you need help. Have a wonderful day! 👋"},
}

// DemoReply is the canned assistant used by /api/chat when no workflow
// backend is involved. Rules are matched in order on the lower-cased text.
func DemoReply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range demoRules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.reply
			}
		}
	}
	return `That's an interesting question: "` + message + `". I can help you with that! Could you provide a bit more detail so I can give you the best answer? Feel free to ask anything - I'm here to help with information, creative tasks, coding, problem-solving, and much more.`
}
