package chain

// Minimal ABI fragments for the V2 swap router and ERC20 tokens. Only the
// functions the trading loop calls are declared.

const routerABIJSON = `[
  {"inputs":[
    {"internalType":"uint256","name":"amountOutMin","type":"uint256"},
    {"internalType":"address[]","name":"path","type":"address[]"},
    {"internalType":"address","name":"to","type":"address"},
    {"internalType":"uint256","name":"deadline","type":"uint256"}
  ],"name":"swapExactETHForTokensSupportingFeeOnTransferTokens","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"amountOut","type":"uint256"},
    {"internalType":"uint256","name":"amountInMax","type":"uint256"},
    {"internalType":"address[]","name":"path","type":"address[]"},
    {"internalType":"address","name":"to","type":"address"},
    {"internalType":"uint256","name":"deadline","type":"uint256"}
  ],"name":"swapTokensForExactETH","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"amountIn","type":"uint256"},
    {"internalType":"address[]","name":"path","type":"address[]"}
  ],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"amountOut","type":"uint256"},
    {"internalType":"address[]","name":"path","type":"address[]"}
  ],"name":"getAmountsIn","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}
]`

const erc20ABIJSON = `[
  {"inputs":[
    {"internalType":"address","name":"spender","type":"address"},
    {"internalType":"uint256","name":"amount","type":"uint256"}
  ],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[
    {"internalType":"address","name":"owner","type":"address"},
    {"internalType":"address","name":"spender","type":"address"}
  ],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`
