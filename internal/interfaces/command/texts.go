package command

const startText = `Hi! I track price spreads between exchanges.

Commands:
🔍 /track SYMBOL - start tracking (e.g. /track BTC/USDT)
🛑 /stop SYMBOL - stop tracking
🚫 /stopall - stop all trackings
📋 /list - tracked pairs
📜 /contracts TOKEN - contract addresses
❓ /help - show help

Pairs use the BASE/QUOTE format (e.g. BTC/USDT).`

const trackUsage = `Usage:
/track SYMBOL [ultra|spot-futures] [venues] [min-spread] [max-spread]

Examples:
/track BTC/USDT
/track BTC/USDT spot-spot mexc,gate 1.5
/track BTC/USDT ultra cex 2.5
/track BTC/USDT ultra all 1.0 10`

const helpText = `📚 Help

1️⃣ Start tracking:
` + trackUsage + `

2️⃣ Stop tracking:
/stop SYMBOL

3️⃣ Stop all trackings:
/stopall

4️⃣ List tracked pairs:
/list

5️⃣ Contract addresses:
/contracts TOKEN

⚠️ Notifications are sent only when the spread changes by more than the configured minimum.`
